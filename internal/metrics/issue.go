package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/model"
	"github.com/mona-actions/gh-community-metrics/internal/output"
)

// IssueWorklistLimit caps the pending-triage list.
const IssueWorklistLimit = 50

// triageLabels are the labels that mark an issue as triaged. Matching is case-insensitive.
var triageLabels = map[string]struct{}{
	"bug":              {},
	"enhancement":      {},
	"feature":          {},
	"documentation":    {},
	"question":         {},
	"help wanted":      {},
	"good first issue": {},
}

// IsTriageLabel reports whether name is one of the recognized triage labels.
func IsTriageLabel(name string) bool {
	_, ok := triageLabels[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// NeedsTriage reports whether an open issue carries no recognized triage label.
func NeedsTriage(is model.Issue) bool {
	if !is.IsOpen() {
		return false
	}
	for _, l := range is.Labels {
		if IsTriageLabel(l.Name) {
			return false
		}
	}
	return true
}

type issueCandidate struct {
	detail output.IssueDetail
	age    time.Duration
}

// AggregateIssues computes issue triage metrics.
//
// Age buckets are half-open: exactly 24h falls in oneToSevenDays, exactly 7 days in
// sevenToThirtyDays, exactly 30 days in moreThanThirtyDays. The daily series counts triaged issues
// (any label) by update date and pending issues (no labels) by creation date, so one issue can
// appear in both counts on different days.
func AggregateIssues(issues []model.Issue, repos join.RepoIndex, now time.Time) output.IssueMetrics {
	m := output.IssueMetrics{
		TotalIssues: len(issues),
	}

	triagedByDay := make(map[string]int)
	pendingByDay := make(map[string]int)
	var pending []issueCandidate

	for _, is := range issues {
		if is.IsOpen() {
			m.OpenIssues++
		} else {
			m.ClosedIssues++
		}

		labelled := len(is.Labels) > 0
		if labelled && within(is.UpdatedAt, now, 7*day) {
			m.RecentlyTriaged++
		}
		if labelled {
			triagedByDay[dayKey(is.UpdatedAt)]++
		} else {
			pendingByDay[dayKey(is.CreatedAt)]++
		}

		if !NeedsTriage(is) {
			continue
		}
		m.PendingTriage++

		age := now.Sub(is.CreatedAt)
		bucketAge(&m.AgeBuckets, age)
		pending = append(pending, issueCandidate{detail: issueDetail(is, repos, now), age: age})
	}

	m.PendingTriageIssues = rankIssues(pending)
	m.DailyTriage = dailyTriageSeries(triagedByDay, pendingByDay, now)

	return m
}

func bucketAge(b *output.AgeBuckets, age time.Duration) {
	switch {
	case age < day:
		b.LessThan24h++
	case age < 7*day:
		b.OneToSevenDays++
	case age < 30*day:
		b.SevenToThirtyDays++
	default:
		b.MoreThanThirtyDays++
	}
}

func issueDetail(is model.Issue, repos join.RepoIndex, now time.Time) output.IssueDetail {
	return output.IssueDetail{
		Number:       is.Number,
		Title:        is.Title,
		Author:       is.Author.Login,
		AuthorAvatar: is.Author.AvatarURL,
		CreatedAt:    is.CreatedAt,
		UpdatedAt:    is.UpdatedAt,
		URL:          is.URL,
		Repository:   repos.Repository(is.Key),
		AgeHours:     round1(hoursSince(is.CreatedAt, now)),
		Labels:       is.LabelNames(),
	}
}

func rankIssues(candidates []issueCandidate) []output.IssueDetail {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].age < candidates[j].age
	})
	if len(candidates) > IssueWorklistLimit {
		candidates = candidates[:IssueWorklistLimit]
	}

	out := make([]output.IssueDetail, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.detail)
	}
	return out
}

func dailyTriageSeries(triaged, pending map[string]int, now time.Time) []output.DailyTriagePoint {
	days := trailingDays(now, seriesDays)
	out := make([]output.DailyTriagePoint, 0, len(days))
	for _, date := range days {
		out = append(out, output.DailyTriagePoint{
			Date:    date,
			Triaged: triaged[date],
			Pending: pending[date],
		})
	}
	return out
}
