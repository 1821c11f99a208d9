// Package model defines the normalized pull request, issue, and review records that flow from the
// fetchers into the aggregators.
//
// Records are built once per run from GitHub API payloads and are never mutated afterwards.
package model

import (
	"strings"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/join"
)

// State values shared by pull requests and issues.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// ReviewState is the state of a submitted pull request review as reported by the API.
type ReviewState string

// Review states.
const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewDismissed        ReviewState = "DISMISSED"
)

// NormalizeReviewState upper-cases a raw state string.
func NormalizeReviewState(s string) ReviewState {
	return ReviewState(strings.ToUpper(strings.TrimSpace(s)))
}

// User is the author of a pull request, issue, or review.
type User struct {
	Login     string
	AvatarURL string
}

// Label is an issue label.
type Label struct {
	Name  string
	Color string
}

// Repository is an active (not archived, not disabled) repository of the organization.
type Repository struct {
	Owner    string
	Name     string
	FullName string
}

// PullRequest is a pull request fetched in the current run.
type PullRequest struct {
	Key       join.Key
	Number    int
	Title     string
	Author    User
	CreatedAt time.Time
	UpdatedAt time.Time
	MergedAt  *time.Time // nil unless merged
	State     string
	URL       string
	Draft     bool
}

// IsOpen reports whether the pull request is open.
func (pr PullRequest) IsOpen() bool { return pr.State == StateOpen }

// IsMerged reports whether the pull request has been merged.
func (pr PullRequest) IsMerged() bool { return pr.MergedAt != nil }

// Issue is an issue (never a pull request) fetched in the current run.
type Issue struct {
	Key       join.Key
	Number    int
	Title     string
	Author    User
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	State     string
	URL       string
	Labels    []Label
}

// IsOpen reports whether the issue is open.
func (i Issue) IsOpen() bool { return i.State == StateOpen }

// LabelNames returns label names in their original order.
func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// Review is a submitted review on a pull request.
type Review struct {
	ID          int64
	PullKey     join.Key
	Reviewer    User
	State       ReviewState
	SubmittedAt time.Time // zero when the API omitted submitted_at
}
