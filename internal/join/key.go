// Package join links pull requests, issues, and reviews back to the repository they came from.
//
// Pull requests, issues, and reviews are fetched per repository but flattened into run-wide
// collections before aggregation. This package provides the composite key that ties each record
// to its repository (owner/repo#number), the run-scoped index from key to repository name, and an
// insertion-ordered container for review lists.
//
// Pull requests and issues share one numbering space per repository, so a Key built from
// (owner, repo, number) identifies exactly one of them.
package join

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// UnknownRepository is reported when a key was never recorded in the index.
const UnknownRepository = "unknown"

// Key identifies a pull request or issue within an organization.
type Key struct {
	Owner  string
	Repo   string
	Number int
}

// NewKey builds a Key from its parts.
func NewKey(owner, repo string, number int) Key {
	return Key{Owner: owner, Repo: repo, Number: number}
}

// String renders the key as owner/repo#number.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Owner, k.Repo, k.Number)
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Owner == "" && k.Repo == "" && k.Number == 0
}

// KeyFromAPIURL derives a Key from a REST resource address such as
// https://api.github.com/repos/{owner}/{repo}/pulls/{number} or .../issues/{number}.
//
// Review payloads only carry this back-reference to their pull request, so the key for a review
// comes from here.
func KeyFromAPIURL(raw string) (Key, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Key{}, fmt.Errorf("parsing API URL %q: %w", raw, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	// GitHub Enterprise serves the API under /api/v3, so search for the repos segment.
	for i := 0; i+4 < len(segments); i++ {
		if segments[i] != "repos" {
			continue
		}
		kind := segments[i+3]
		if kind != "pulls" && kind != "issues" {
			continue
		}
		n, err := strconv.Atoi(segments[i+4])
		if err != nil || n <= 0 {
			return Key{}, fmt.Errorf("API URL %q has no valid number", raw)
		}
		return NewKey(segments[i+1], segments[i+2], n), nil
	}

	return Key{}, fmt.Errorf("API URL %q does not reference a pull request or issue", raw)
}
