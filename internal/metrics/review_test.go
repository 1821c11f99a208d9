package metrics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
	"github.com/mona-actions/gh-community-metrics/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateReviews_Counts(t *testing.T) {
	prs := []model.PullRequest{
		openPR("alpha", 1, ago(48*time.Hour)),
		mergedPR("alpha", 2, ago(72*time.Hour)),
	}
	dismissed := review(prs[0], "r1", model.ReviewDismissed, ago(time.Hour))
	m := AggregateReviews(prs, reviewSet(prs,
		review(prs[0], "r1", model.ReviewApproved, ago(time.Hour)),
		review(prs[1], "r2", model.ReviewChangesRequested, ago(2*time.Hour)),
		review(prs[1], "r2", model.ReviewCommented, ago(3*time.Hour)),
		dismissed,
	), indexOf(prs, nil), now)

	assert.Equal(t, 2, m.TotalPRs)
	assert.Equal(t, 1, m.OpenPRs)
	assert.Equal(t, 1, m.MergedPRs)
	assert.Equal(t, 4, m.TotalReviews)
	assert.Equal(t, output.ReviewStateCounts{Approved: 1, ChangesRequested: 1, Commented: 1, Pending: 0}, m.ReviewStates)
}

func TestAggregateReviews_NegativeLatencyPreserved(t *testing.T) {
	pr := openPR("alpha", 1, ago(time.Hour))
	prs := []model.PullRequest{pr}

	m := AggregateReviews(prs, reviewSet(prs, review(pr, "r1", model.ReviewCommented, ago(3*time.Hour))), indexOf(prs, nil), now)

	assert.Equal(t, -2.0, m.AverageReviewTimeHours)
	last := m.DailyReviews[len(m.DailyReviews)-1]
	assert.Equal(t, dayKey(now), last.Date)
	assert.Equal(t, 1, last.Reviews)
	assert.Equal(t, -2.0, last.AvgReviewTimeHours)
}

func TestAggregateReviews_Windows(t *testing.T) {
	pr := openPR("alpha", 1, ago(90*24*time.Hour))
	prs := []model.PullRequest{pr}

	m := AggregateReviews(prs, reviewSet(prs,
		review(pr, "r1", model.ReviewCommented, ago(7*day)),
		review(pr, "r1", model.ReviewCommented, ago(7*day+time.Second)),
		review(pr, "r1", model.ReviewCommented, ago(30*day)),
		review(pr, "r1", model.ReviewCommented, ago(31*day)),
		review(pr, "r1", model.ReviewCommented, time.Time{}),
	), indexOf(prs, nil), now)

	assert.Equal(t, 5, m.TotalReviews)
	assert.Equal(t, 1, m.ReviewsLast7Days)
	assert.Equal(t, 3, m.ReviewsLast30Days)
	require.Len(t, m.TopReviewers, 1)
	assert.Equal(t, 5, m.TopReviewers[0].ReviewCount)
}

func TestAggregateReviews_UnsubmittedReviewsSkipLatency(t *testing.T) {
	pr := openPR("alpha", 1, ago(10*time.Hour))
	prs := []model.PullRequest{pr}

	m := AggregateReviews(prs, reviewSet(prs,
		review(pr, "r1", model.ReviewApproved, ago(6*time.Hour)),
		review(pr, "r2", model.ReviewApproved, time.Time{}),
	), indexOf(prs, nil), now)

	assert.Equal(t, 2, m.TotalReviews)
	assert.Equal(t, 4.0, m.AverageReviewTimeHours)
}

func TestAggregateReviews_TopReviewers(t *testing.T) {
	t.Run("Success - Ties keep first-seen order", func(t *testing.T) {
		pr := openPR("alpha", 1, ago(day))
		prs := []model.PullRequest{pr}

		var reviews []model.Review
		add := func(login string, n int) {
			for i := 0; i < n; i++ {
				reviews = append(reviews, review(pr, login, model.ReviewCommented, ago(time.Hour)))
			}
		}
		add("carol", 3)
		add("bob", 5)
		add("alice", 5)

		m := AggregateReviews(prs, reviewSet(prs, reviews...), indexOf(prs, nil), now)

		require.Len(t, m.TopReviewers, 3)
		assert.Equal(t, "bob", m.TopReviewers[0].Login)
		assert.Equal(t, "alice", m.TopReviewers[1].Login)
		assert.Equal(t, "carol", m.TopReviewers[2].Login)
		assert.Equal(t, []int{5, 5, 3}, []int{m.TopReviewers[0].ReviewCount, m.TopReviewers[1].ReviewCount, m.TopReviewers[2].ReviewCount})
	})

	t.Run("Success - Capped at ten", func(t *testing.T) {
		pr := openPR("alpha", 1, ago(day))
		prs := []model.PullRequest{pr}

		var reviews []model.Review
		for i := 0; i < 12; i++ {
			reviews = append(reviews, review(pr, fmt.Sprintf("r%02d", i), model.ReviewCommented, ago(time.Hour)))
		}
		reviews = append(reviews, review(pr, "r11", model.ReviewCommented, ago(time.Hour)))

		m := AggregateReviews(prs, reviewSet(prs, reviews...), indexOf(prs, nil), now)

		require.Len(t, m.TopReviewers, TopReviewerLimit)
		assert.Equal(t, "r11", m.TopReviewers[0].Login)
		assert.Equal(t, "r00", m.TopReviewers[1].Login)
		assert.Equal(t, "r08", m.TopReviewers[9].Login)
	})

	t.Run("Success - First-seen avatar wins", func(t *testing.T) {
		pr := openPR("alpha", 1, ago(day))
		prs := []model.PullRequest{pr}
		first := review(pr, "r1", model.ReviewCommented, ago(time.Hour))
		second := review(pr, "r1", model.ReviewCommented, ago(time.Hour))
		second.Reviewer.AvatarURL = "https://avatars.example.com/changed"

		m := AggregateReviews(prs, reviewSet(prs, first, second), indexOf(prs, nil), now)

		require.Len(t, m.TopReviewers, 1)
		assert.Equal(t, "https://avatars.example.com/r1", m.TopReviewers[0].AvatarURL)
	})
}

func TestAggregateReviews_UnresolvedReviewsDiscarded(t *testing.T) {
	pr := openPR("alpha", 1, ago(day))
	prs := []model.PullRequest{pr}
	orphan := review(openPR("beta", 9, ago(day)), "r1", model.ReviewApproved, ago(time.Hour))

	m := AggregateReviews(prs, reviewSet(prs, orphan), indexOf(prs, nil), now)

	assert.Zero(t, m.TotalReviews)
	assert.Empty(t, m.TopReviewers)
	assert.Zero(t, m.ReviewStates.Approved)
}

func TestAggregateReviews_Classification(t *testing.T) {
	noReviews := openPR("alpha", 1, ago(5*time.Hour))
	commentOnly := openPR("alpha", 2, ago(4*time.Hour))
	approved := openPR("alpha", 3, ago(3*time.Hour))
	contested := openPR("alpha", 4, ago(2*time.Hour))
	approvedThenComment := openPR("alpha", 5, ago(time.Hour))
	draft := openPR("alpha", 6, ago(time.Hour))
	draft.Draft = true
	merged := mergedPR("alpha", 7, ago(time.Hour))

	prs := []model.PullRequest{noReviews, commentOnly, approved, contested, approvedThenComment, draft, merged}
	m := AggregateReviews(prs, reviewSet(prs,
		review(commentOnly, "r1", model.ReviewCommented, ago(time.Hour)),
		review(approved, "r1", model.ReviewApproved, ago(time.Hour)),
		review(contested, "r1", model.ReviewApproved, ago(time.Hour)),
		review(contested, "r2", model.ReviewChangesRequested, ago(time.Hour)),
		review(approvedThenComment, "r1", model.ReviewApproved, ago(time.Hour)),
		review(approvedThenComment, "r2", model.ReviewCommented, ago(time.Minute)),
	), indexOf(prs, nil), now)

	numbers := func(details []output.PRDetail) []int {
		out := make([]int, 0, len(details))
		for _, d := range details {
			out = append(out, d.Number)
		}
		return out
	}

	assert.Equal(t, []int{2, 1}, numbers(m.PRsNeedingReview))
	assert.Equal(t, []int{5, 3}, numbers(m.PRsReadyToMerge))
	assert.Equal(t, 2, m.ReviewStates.Pending)

	ready := m.PRsReadyToMerge[0]
	assert.Equal(t, 2, ready.ReviewCount)
	assert.Equal(t, 1, ready.Approvals)
	assert.Equal(t, 1.0, ready.AgeHours)
	assert.Equal(t, "alpha", ready.Repository)
	assert.Equal(t, "author", ready.Author)
}

func TestAggregateReviews_WorklistCap(t *testing.T) {
	var prs []model.PullRequest
	for i := 0; i < 25; i++ {
		// Alternate ages so input order differs from output order.
		hours := time.Duration((i*7)%25+1) * time.Hour
		prs = append(prs, openPR("alpha", i+1, ago(hours)))
	}

	m := AggregateReviews(prs, reviewSet(prs), indexOf(prs, nil), now)

	require.Len(t, m.PRsNeedingReview, PRWorklistLimit)
	assert.Equal(t, 25, m.ReviewStates.Pending)
	for i := 1; i < len(m.PRsNeedingReview); i++ {
		assert.LessOrEqual(t, m.PRsNeedingReview[i-1].AgeHours, m.PRsNeedingReview[i].AgeHours)
	}
	assert.Equal(t, 1.0, m.PRsNeedingReview[0].AgeHours)
	assert.Equal(t, 20.0, m.PRsNeedingReview[19].AgeHours)
}

func TestAggregateReviews_DailySeries(t *testing.T) {
	pr := openPR("alpha", 1, ago(20*day))
	prs := []model.PullRequest{pr}

	m := AggregateReviews(prs, reviewSet(prs,
		review(pr, "r1", model.ReviewCommented, ago(day)),
		review(pr, "r1", model.ReviewCommented, ago(day+time.Hour)),
		review(pr, "r1", model.ReviewCommented, ago(15*day)),
	), indexOf(prs, nil), now)

	require.Len(t, m.DailyReviews, 14)
	assert.Equal(t, "2024-04-18", m.DailyReviews[0].Date)
	assert.Equal(t, "2024-05-01", m.DailyReviews[13].Date)

	yesterday := m.DailyReviews[12]
	assert.Equal(t, "2024-04-30", yesterday.Date)
	assert.Equal(t, 2, yesterday.Reviews)
	assert.Equal(t, 455.5, yesterday.AvgReviewTimeHours)

	total := 0
	for _, p := range m.DailyReviews {
		total += p.Reviews
	}
	assert.Equal(t, 2, total, "reviews older than the series are not charted")
}

func TestAggregateReviews_UnknownRepository(t *testing.T) {
	pr := openPR("alpha", 1, ago(time.Hour))
	prs := []model.PullRequest{pr}

	m := AggregateReviews(prs, reviewSet(prs), join.NewRepoIndex(), now)

	require.Len(t, m.PRsNeedingReview, 1)
	assert.Equal(t, join.UnknownRepository, m.PRsNeedingReview[0].Repository)
}

func TestAggregateReviews_EmptyInputs(t *testing.T) {
	m := AggregateReviews(nil, nil, nil, now)

	assert.Zero(t, m.TotalPRs)
	assert.Zero(t, m.AverageReviewTimeHours)
	assert.NotNil(t, m.TopReviewers)
	assert.NotNil(t, m.PRsNeedingReview)
	assert.NotNil(t, m.PRsReadyToMerge)
	assert.Len(t, m.DailyReviews, 14)
}

func TestAggregate_Deterministic(t *testing.T) {
	build := func() ([]byte, []byte) {
		prs := []model.PullRequest{
			openPR("alpha", 1, ago(30*time.Hour)),
			openPR("beta", 2, ago(3*time.Hour)),
			mergedPR("alpha", 3, ago(50*time.Hour)),
		}
		issues := []model.Issue{
			issue("alpha", 10, model.StateOpen, ago(2*day), ago(time.Hour)),
			issue("beta", 11, model.StateOpen, ago(40*day), ago(2*day), "bug"),
		}
		reviews := reviewSet(prs,
			review(prs[0], "x", model.ReviewApproved, ago(2*time.Hour)),
			review(prs[1], "y", model.ReviewCommented, ago(time.Hour)),
			review(prs[2], "x", model.ReviewApproved, ago(45*time.Hour)),
			review(prs[2], "z", model.ReviewCommented, ago(44*time.Hour)),
		)
		idx := indexOf(prs, issues)

		rm, err := json.Marshal(AggregateReviews(prs, reviews, idx, now))
		require.NoError(t, err)
		im, err := json.Marshal(AggregateIssues(issues, idx, now))
		require.NoError(t, err)
		return rm, im
	}

	r1, i1 := build()
	r2, i2 := build()
	assert.Equal(t, r1, r2)
	assert.Equal(t, i1, i2)
}
