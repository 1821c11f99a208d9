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

// FetchIssues returns the repository's issues updated at or after cutoff, excluding pull
// requests (the issues endpoint lists both) and bot authors.
func (c *Client) FetchIssues(ctx context.Context, owner, repo string, cutoff time.Time) ([]model.Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	params := url.Values{
		"state":     {"all"},
		"sort":      {"updated"},
		"direction": {"desc"},
		"since":     {cutoff.UTC().Format(time.RFC3339)},
	}

	raw, err := fetchPages[*github.Issue](ctx, c, path, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
	}

	issues := make([]model.Issue, 0, len(raw))
	for _, is := range raw {
		if is == nil || is.IsPullRequest() || IsBot(is.GetUser()) || is.GetUpdatedAt().Before(cutoff) {
			continue
		}
		issues = append(issues, toIssue(owner, repo, is))
	}
	return issues, nil
}

func toIssue(owner, repo string, is *github.Issue) model.Issue {
	out := model.Issue{
		Key:       join.NewKey(owner, repo, is.GetNumber()),
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Author:    toUser(is.GetUser()),
		CreatedAt: is.GetCreatedAt().Time,
		UpdatedAt: is.GetUpdatedAt().Time,
		State:     is.GetState(),
		URL:       is.GetHTMLURL(),
	}
	if is.ClosedAt != nil && !is.ClosedAt.IsZero() {
		closed := is.ClosedAt.Time
		out.ClosedAt = &closed
	}
	for _, l := range is.Labels {
		if l == nil {
			continue
		}
		out.Labels = append(out.Labels, model.Label{Name: l.GetName(), Color: l.GetColor()})
	}
	return out
}
