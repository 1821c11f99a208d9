package stats

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOrgName(t *testing.T) {
	tests := []struct {
		name    string
		org     string
		wantErr bool
	}{
		{"valid simple name", "github", false},
		{"valid with hyphens", "mona-actions", false},
		{"valid single character", "a", false},
		{"valid max length", strings.Repeat("a", 39), false},
		{"empty name", "", true},
		{"too long", strings.Repeat("a", 40), true},
		{"starts with hyphen", "-octo", true},
		{"ends with hyphen", "octo-", true},
		{"contains underscore", "octo_org", true},
		{"contains slash", "octo/org", true},
		{"contains space", "octo org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrgName(tt.org)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAPIURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"public api", "https://api.github.com", false},
		{"enterprise api", "https://ghe.example.com/api/v3", false},
		{"local http", "http://127.0.0.1:8080", false},
		{"no scheme", "api.github.com", true},
		{"wrong scheme", "ftp://api.github.com", true},
		{"missing host", "https://", true},
		{"query", "https://api.github.com?x=1", true},
		{"fragment", "https://api.github.com#top", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("Success - toml file", func(t *testing.T) {
		got, err := validateConfigPath(filepath.Join(dir, "metrics.toml"))
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("Success - relative path made absolute", func(t *testing.T) {
		got, err := validateConfigPath("metrics.TOML")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("Error - sensitive directory", func(t *testing.T) {
		for _, d := range []string{".ssh", ".git", ".aws"} {
			_, err := validateConfigPath(filepath.Join(dir, d, "config.toml"))
			require.Error(t, err, d)
			assert.Contains(t, err.Error(), "access denied")
		}
	})

	t.Run("Error - wrong extension", func(t *testing.T) {
		_, err := validateConfigPath(filepath.Join(dir, "metrics.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only .toml is supported")
	})
}
