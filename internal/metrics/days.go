// Package metrics turns the pull requests, reviews, and issues collected in a run into the review
// and triage analytics of the snapshot.
//
// Aggregation is a pure function of its inputs and an explicit "now": the same records and the
// same now always produce the same metrics, independent of wall-clock time or map iteration order.
package metrics

import (
	"math"
	"time"
)

const (
	dayLayout = "2006-01-02"

	// seriesDays is the length of the daily series, ending with today (UTC).
	seriesDays = 14

	day = 24 * time.Hour
)

// dayKey returns the UTC calendar date of t.
func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// trailingDays returns the n UTC dates ending with the date of now, oldest first.
func trailingDays(now time.Time, n int) []string {
	today := now.UTC()
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i).Format(dayLayout))
	}
	return out
}

// within reports whether t falls in the window [now-span, ∞).
func within(t, now time.Time, span time.Duration) bool {
	return !t.Before(now.Add(-span))
}

// hoursSince returns the signed number of hours from t to now.
func hoursSince(t, now time.Time) float64 {
	return now.Sub(t).Hours()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// mean returns sum/n rounded to one decimal, or 0 when n is zero.
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}
