package ghapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-github/v80/github"
	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
	"github.com/pterm/pterm"
)

// FetchReviews returns the non-bot reviews of one pull request.
//
// Only the first page (up to PageSize reviews) is requested. A failed request is reported as a
// warning and yields an empty list so one pull request cannot fail its repository.
func (c *Client) FetchReviews(ctx context.Context, pr join.Key) []model.Review {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews?per_page=%s",
		url.PathEscape(pr.Owner), url.PathEscape(pr.Repo), pr.Number, strconv.Itoa(PageSize))

	var raw []*github.PullRequestReview
	if err := c.Get(ctx, path, &raw); err != nil {
		c.status.Warnf("⚠ Reviews unavailable for %s: %v\n", pr, err)
		return []model.Review{}
	}

	reviews := make([]model.Review, 0, len(raw))
	for _, r := range raw {
		if r == nil || IsBot(r.GetUser()) {
			continue
		}
		reviews = append(reviews, toReview(pr, r))
	}
	return reviews
}

func toReview(fallback join.Key, r *github.PullRequestReview) model.Review {
	key := fallback
	if u := r.GetPullRequestURL(); u != "" {
		if parsed, err := join.KeyFromAPIURL(u); err == nil {
			key = parsed
		} else {
			pterm.Debug.Printf("review %d: %v, using %s\n", r.GetID(), err, fallback)
		}
	}

	out := model.Review{
		ID:       r.GetID(),
		PullKey:  key,
		Reviewer: toUser(r.GetUser()),
		State:    model.NormalizeReviewState(r.GetState()),
	}
	if r.SubmittedAt != nil {
		out.SubmittedAt = r.SubmittedAt.Time
	}
	return out
}
