package metrics

import (
	"sort"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
	"github.com/mona-actions/gh-community-metrics/internal/output"
)

// Review aggregation limits.
const (
	TopReviewerLimit = 10
	PRWorklistLimit  = 20
)

type reviewerTally struct {
	login  string
	avatar string
	count  int
}

type dayTally struct {
	reviews      int
	latencySum   float64
	latencyCount int
}

type prCandidate struct {
	detail output.PRDetail
	age    time.Duration
}

// AggregateReviews computes review metrics.
//
// Reviews are attributed to pull requests by key; reviews whose pull request is not among prs are
// ignored. The 7/30-day windows, latency, and the daily series need a submission time; reviews
// without one still count toward totals, the leaderboard, and state tallies. Latency is
// (submitted - PR created) and may be negative. Dismissed reviews count toward totals but no
// state bucket.
//
// Only open, unmerged, non-draft pull requests are classified. A pull request needs review when it
// has no reviews or only comment reviews. It is ready to merge when it has at least one approval
// and no change requests. The pending state bucket holds the number of pull requests needing
// review, not a number of review events.
func AggregateReviews(prs []model.PullRequest, reviews *join.ReviewSet[model.Review], repos join.RepoIndex, now time.Time) output.ReviewMetrics {
	m := output.ReviewMetrics{
		TotalPRs: len(prs),
	}

	byKey := make(map[join.Key]model.PullRequest, len(prs))
	for _, pr := range prs {
		byKey[pr.Key] = pr
		if pr.IsOpen() {
			m.OpenPRs++
		}
		if pr.IsMerged() {
			m.MergedPRs++
		}
	}

	var (
		reviewers     []*reviewerTally
		reviewerIndex = make(map[string]*reviewerTally)
		daily         = make(map[string]*dayTally)
		latencySum    float64
		latencyCount  int
	)

	for _, key := range reviews.Keys() {
		pr, ok := byKey[key]
		if !ok {
			continue
		}
		for _, r := range reviews.Get(key) {
			m.TotalReviews++

			tally, seen := reviewerIndex[r.Reviewer.Login]
			if !seen {
				tally = &reviewerTally{login: r.Reviewer.Login, avatar: r.Reviewer.AvatarURL}
				reviewerIndex[r.Reviewer.Login] = tally
				reviewers = append(reviewers, tally)
			}
			tally.count++

			switch r.State {
			case model.ReviewApproved:
				m.ReviewStates.Approved++
			case model.ReviewChangesRequested:
				m.ReviewStates.ChangesRequested++
			case model.ReviewCommented:
				m.ReviewStates.Commented++
			}

			if r.SubmittedAt.IsZero() {
				continue
			}
			if within(r.SubmittedAt, now, 7*day) {
				m.ReviewsLast7Days++
			}
			if within(r.SubmittedAt, now, 30*day) {
				m.ReviewsLast30Days++
			}

			latency := r.SubmittedAt.Sub(pr.CreatedAt).Hours()
			latencySum += latency
			latencyCount++

			d := daily[dayKey(r.SubmittedAt)]
			if d == nil {
				d = &dayTally{}
				daily[dayKey(r.SubmittedAt)] = d
			}
			d.reviews++
			d.latencySum += latency
			d.latencyCount++
		}
	}

	m.AverageReviewTimeHours = mean(latencySum, latencyCount)
	m.TopReviewers = topReviewers(reviewers)
	m.DailyReviews = dailyReviewSeries(daily, now)

	var needing, ready []prCandidate
	for _, pr := range prs {
		if !pr.IsOpen() || pr.IsMerged() || pr.Draft {
			continue
		}

		prReviews := reviews.Get(pr.Key)
		approvals, changes, comments := 0, 0, 0
		for _, r := range prReviews {
			switch r.State {
			case model.ReviewApproved:
				approvals++
			case model.ReviewChangesRequested:
				changes++
			case model.ReviewCommented:
				comments++
			}
		}

		c := prCandidate{
			detail: prDetail(pr, repos, now, len(prReviews), approvals),
			age:    now.Sub(pr.CreatedAt),
		}
		if len(prReviews) == 0 || comments == len(prReviews) {
			needing = append(needing, c)
		}
		if approvals > 0 && changes == 0 {
			ready = append(ready, c)
		}
	}

	m.ReviewStates.Pending = len(needing)
	m.PRsNeedingReview = rankPRs(needing)
	m.PRsReadyToMerge = rankPRs(ready)

	return m
}

func prDetail(pr model.PullRequest, repos join.RepoIndex, now time.Time, reviewCount, approvals int) output.PRDetail {
	return output.PRDetail{
		Number:       pr.Number,
		Title:        pr.Title,
		Author:       pr.Author.Login,
		AuthorAvatar: pr.Author.AvatarURL,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
		URL:          pr.URL,
		Repository:   repos.Repository(pr.Key),
		AgeHours:     round1(hoursSince(pr.CreatedAt, now)),
		ReviewCount:  reviewCount,
		Approvals:    approvals,
	}
}

// topReviewers ranks by count descending. The sort is stable, so equal counts keep first-seen order.
func topReviewers(tallies []*reviewerTally) []output.ReviewerStat {
	sorted := make([]*reviewerTally, len(tallies))
	copy(sorted, tallies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].count > sorted[j].count
	})
	if len(sorted) > TopReviewerLimit {
		sorted = sorted[:TopReviewerLimit]
	}

	out := make([]output.ReviewerStat, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, output.ReviewerStat{Login: t.login, AvatarURL: t.avatar, ReviewCount: t.count})
	}
	return out
}

func dailyReviewSeries(daily map[string]*dayTally, now time.Time) []output.DailyReviewPoint {
	days := trailingDays(now, seriesDays)
	out := make([]output.DailyReviewPoint, 0, len(days))
	for _, date := range days {
		point := output.DailyReviewPoint{Date: date}
		if d := daily[date]; d != nil {
			point.Reviews = d.reviews
			point.AvgReviewTimeHours = mean(d.latencySum, d.latencyCount)
		}
		out = append(out, point)
	}
	return out
}

// rankPRs sorts youngest first and caps the list.
func rankPRs(candidates []prCandidate) []output.PRDetail {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].age < candidates[j].age
	})
	if len(candidates) > PRWorklistLimit {
		candidates = candidates[:PRWorklistLimit]
	}

	out := make([]output.PRDetail, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.detail)
	}
	return out
}
