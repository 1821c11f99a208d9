package ghapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/go-github/v80/github"
	"github.com/mona-actions/gh-community-metrics/internal/model"
)

// FetchRepositories lists the organization's repositories, dropping archived and disabled ones.
func (c *Client) FetchRepositories(ctx context.Context, org string) ([]model.Repository, error) {
	path := fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org))

	raw, err := fetchPages[*github.Repository](ctx, c, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", org, err)
	}

	repos := make([]model.Repository, 0, len(raw))
	for _, r := range raw {
		if r == nil || r.GetArchived() || r.GetDisabled() {
			continue
		}
		owner := r.GetOwner().GetLogin()
		if owner == "" {
			owner = org
		}
		fullName := r.GetFullName()
		if fullName == "" {
			fullName = owner + "/" + r.GetName()
		}
		repos = append(repos, model.Repository{
			Owner:    owner,
			Name:     r.GetName(),
			FullName: fullName,
		})
	}
	return repos, nil
}
