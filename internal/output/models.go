// Package output provides the analytics snapshot models, the sinks that publish them, and the
// console formatting used while a run is in progress.
package output

import (
	"os"
	"time"
)

// AnalyticsSnapshot is the single document produced by a run.
//
// Downstream renderers read this document verbatim. It carries no schema version, so any change
// to field names or nesting is a breaking change for them.
type AnalyticsSnapshot struct {
	Organization    string        `json:"organization"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	ReviewMetrics   ReviewMetrics `json:"reviewMetrics"`
	IssueMetrics    IssueMetrics  `json:"issueMetrics"`
	RepositoryCount int           `json:"repositoryCount"`
}

// ReviewMetrics summarizes pull request review activity.
type ReviewMetrics struct {
	TotalPRs               int     `json:"totalPRs"`
	OpenPRs                int     `json:"openPRs"`
	MergedPRs              int     `json:"mergedPRs"`
	TotalReviews           int     `json:"totalReviews"`
	ReviewsLast7Days       int     `json:"reviewsLast7Days"`
	ReviewsLast30Days      int     `json:"reviewsLast30Days"`
	AverageReviewTimeHours float64 `json:"averageReviewTimeHours"` // mean latency over reviews with a submission time

	TopReviewers     []ReviewerStat     `json:"topReviewers"`
	DailyReviews     []DailyReviewPoint `json:"dailyReviews"` // trailing 14 days, oldest first
	ReviewStates     ReviewStateCounts  `json:"reviewStates"`
	PRsNeedingReview []PRDetail         `json:"prsNeedingReview"`
	PRsReadyToMerge  []PRDetail         `json:"prsReadyToMerge"`
}

// ReviewerStat is one leaderboard entry.
type ReviewerStat struct {
	Login       string `json:"login"`
	AvatarURL   string `json:"avatarUrl"`
	ReviewCount int    `json:"reviewCount"`
}

// DailyReviewPoint is one day of the review time series.
type DailyReviewPoint struct {
	Date               string  `json:"date"` // YYYY-MM-DD, UTC
	Reviews            int     `json:"reviews"`
	AvgReviewTimeHours float64 `json:"avgReviewTimeHours"`
}

// ReviewStateCounts is the review state distribution.
//
// Approved, ChangesRequested and Commented count review events. Pending counts pull requests that
// need review. The mixed units are kept because dashboards already chart them side by side.
type ReviewStateCounts struct {
	Approved         int `json:"approved"`
	ChangesRequested int `json:"changesRequested"`
	Commented        int `json:"commented"`
	Pending          int `json:"pending"`
}

// PRDetail is a worklist entry for an open pull request.
type PRDetail struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"authorAvatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	URL          string    `json:"url"`
	Repository   string    `json:"repository"`
	AgeHours     float64   `json:"ageHours"` // rounded to one decimal
	ReviewCount  int       `json:"reviewCount"`
	Approvals    int       `json:"approvals"`
}

// IssueMetrics summarizes issue triage.
type IssueMetrics struct {
	TotalIssues     int `json:"totalIssues"`
	OpenIssues      int `json:"openIssues"`
	ClosedIssues    int `json:"closedIssues"`
	PendingTriage   int `json:"pendingTriage"`
	RecentlyTriaged int `json:"recentlyTriaged"`

	AgeBuckets          AgeBuckets         `json:"ageBuckets"`
	DailyTriage         []DailyTriagePoint `json:"dailyTriage"` // trailing 14 days, oldest first
	PendingTriageIssues []IssueDetail      `json:"pendingTriageIssues"`
}

// AgeBuckets is the age histogram of issues pending triage. Buckets are half-open on the upper bound.
type AgeBuckets struct {
	LessThan24h        int `json:"lessThan24h"`
	OneToSevenDays     int `json:"oneToSevenDays"`
	SevenToThirtyDays  int `json:"sevenToThirtyDays"`
	MoreThanThirtyDays int `json:"moreThanThirtyDays"`
}

// DailyTriagePoint is one day of the triage time series.
type DailyTriagePoint struct {
	Date    string `json:"date"`    // YYYY-MM-DD, UTC
	Triaged int    `json:"triaged"` // labeled issues last updated on this date
	Pending int    `json:"pending"` // unlabeled issues created on this date
}

// IssueDetail is a pending-triage worklist entry.
type IssueDetail struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"authorAvatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	URL          string    `json:"url"`
	Repository   string    `json:"repository"`
	AgeHours     float64   `json:"ageHours"`
	Labels       []string  `json:"labels"`
}

// fileExists checks if a file exists and is not a directory.
func fileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
