package ghapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/go-github/v80/github"
	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
)

// FetchPullRequests returns the repository's pull requests updated at or after cutoff, most
// recently updated first, excluding bot authors.
//
// Pages are requested in updated-descending order, so once a page contains an item older than
// cutoff no later page can contain newer ones and pagination stops after that page.
func (c *Client) FetchPullRequests(ctx context.Context, owner, repo string, cutoff time.Time) ([]model.PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	params := url.Values{
		"state":     {"all"},
		"sort":      {"updated"},
		"direction": {"desc"},
	}

	raw, err := fetchPages[*github.PullRequest](ctx, c, path, params, func(page []*github.PullRequest) bool {
		for _, pr := range page {
			if pr.GetUpdatedAt().Before(cutoff) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", owner, repo, err)
	}

	prs := make([]model.PullRequest, 0, len(raw))
	for _, pr := range raw {
		if pr == nil || IsBot(pr.GetUser()) || pr.GetUpdatedAt().Before(cutoff) {
			continue
		}
		prs = append(prs, toPullRequest(owner, repo, pr))
	}
	return prs, nil
}

func toPullRequest(owner, repo string, pr *github.PullRequest) model.PullRequest {
	out := model.PullRequest{
		Key:       join.NewKey(owner, repo, pr.GetNumber()),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    toUser(pr.GetUser()),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		State:     pr.GetState(),
		URL:       pr.GetHTMLURL(),
		Draft:     pr.GetDraft(),
	}
	if pr.MergedAt != nil && !pr.MergedAt.IsZero() {
		merged := pr.MergedAt.Time
		out.MergedAt = &merged
	}
	return out
}
