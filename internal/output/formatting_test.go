package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 30*time.Second, "5m30s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{180 * 24 * time.Hour, "180d"},
		{25 * time.Hour, "25h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-4,500", FormatNumber(-4500))
}

func TestFormatTimeUntil(t *testing.T) {
	assert.Equal(t, "now", FormatTimeUntil(time.Now().Add(-time.Minute)))
	assert.Equal(t, "2h", FormatTimeUntil(time.Now().Add(2*time.Hour+10*time.Second)))
}

func TestJoinWithComma(t *testing.T) {
	assert.Equal(t, "none", joinWithComma(nil))
	assert.Equal(t, "a", joinWithComma([]string{"a"}))
	assert.Equal(t, "a, b", joinWithComma([]string{"a", "b"}))
}
