package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_String(t *testing.T) {
	assert.Equal(t, "octo/alpha#42", NewKey("octo", "alpha", 42).String())
}

func TestKeyFromAPIURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Key
		wantErr bool
	}{
		{name: "pull request", in: "https://api.github.com/repos/octo/alpha/pulls/12", want: NewKey("octo", "alpha", 12)},
		{name: "issue", in: "https://api.github.com/repos/octo/beta/issues/3", want: NewKey("octo", "beta", 3)},
		{name: "enterprise prefix", in: "https://ghe.example.com/api/v3/repos/octo/alpha/pulls/9", want: NewKey("octo", "alpha", 9)},
		{name: "not a pull", in: "https://api.github.com/repos/octo/alpha/commits/abc", wantErr: true},
		{name: "bad number", in: "https://api.github.com/repos/octo/alpha/pulls/abc", wantErr: true},
		{name: "too short", in: "https://api.github.com/repos/octo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromAPIURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepoIndex(t *testing.T) {
	idx := NewRepoIndex()
	idx.Record(NewKey("octo", "alpha", 1), "alpha")

	assert.Equal(t, "alpha", idx.Repository(NewKey("octo", "alpha", 1)))
	assert.Equal(t, UnknownRepository, idx.Repository(NewKey("octo", "alpha", 2)))
	assert.Equal(t, UnknownRepository, idx.Repository(NewKey("octo", "beta", 1)))
	assert.Equal(t, 1, idx.Len())
}

func TestReviewSet_PreservesInsertionOrder(t *testing.T) {
	s := NewReviewSet[string]()
	s.Add(NewKey("octo", "b", 2), "r1")
	s.Add(NewKey("octo", "a", 1))
	s.Add(NewKey("octo", "b", 2), "r2", "r3")
	s.Add(NewKey("octo", "c", 9), "r4")

	assert.Equal(t, []Key{
		NewKey("octo", "b", 2),
		NewKey("octo", "a", 1),
		NewKey("octo", "c", 9),
	}, s.Keys())
	assert.Equal(t, []string{"r1", "r2", "r3"}, s.Get(NewKey("octo", "b", 2)))
	assert.Empty(t, s.Get(NewKey("octo", "a", 1)))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 4, s.Total())
}

func TestReviewSet_NilSafe(t *testing.T) {
	var s *ReviewSet[int]
	assert.Nil(t, s.Get(NewKey("o", "r", 1)))
	assert.Nil(t, s.Keys())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Total())
}
