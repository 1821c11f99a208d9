// Package state tracks the progress of a single collection run.
//
// A Status is created per run and handed to the fetch client and the orchestrator. It counts API
// calls, remembers the last rate limit quota the API reported, and tallies repository outcomes
// and logged warnings/errors for the completion summary.
//
// Key features:
//   - Atomic counters for API calls and repository outcomes
//   - Last-seen REST rate limit information
//   - Throttled low-quota warnings so a long run does not flood the console
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"
)

// LowQuotaThreshold is the remaining-quota level at or below which a warning is shown.
const LowQuotaThreshold int64 = 100

// lowQuotaWarnInterval bounds how often the low-quota warning repeats.
const lowQuotaWarnInterval = time.Minute

// RateLimitInfo holds GitHub REST API rate limit information as last reported by the API.
//
// Zero value: Observed is false until the API has reported a quota.
type RateLimitInfo struct {
	Limit     int64
	Remaining int64
	Reset     time.Time
	Observed  bool
}

// Status tracks the progress and API call counts for the current run.
//
// Thread-safety: All methods are safe for concurrent use. The run itself is sequential, but the
// CLI's signal handler may read the status while the run is in flight.
type Status struct {
	apiCalls  int64
	repoTotal int64
	repoDone  int64
	partial   int64
	failed    int64
	warnings  int64
	errors    int64

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo

	lowQuota *rate.Limiter
}

// New returns an empty Status for one run.
func New() *Status {
	return &Status{
		lowQuota: rate.NewLimiter(rate.Every(lowQuotaWarnInterval), 1),
	}
}

// IncrementAPICalls increments the API call count.
func (s *Status) IncrementAPICalls() {
	atomic.AddInt64(&s.apiCalls, 1)
}

// GetAPICalls returns the current API call count.
func (s *Status) GetAPICalls() int64 {
	return atomic.LoadInt64(&s.apiCalls)
}

// UpdateRateLimit records the quota reported by the latest response.
// When remaining drops to LowQuotaThreshold or below, a warning is printed, at most once per minute.
func (s *Status) UpdateRateLimit(limit, remaining int64, reset time.Time) {
	s.rateLimitMu.Lock()
	s.rateLimit = RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
		Observed:  true,
	}
	s.rateLimitMu.Unlock()

	if remaining <= LowQuotaThreshold && s.lowQuota.Allow() {
		s.Warnf("⚠ REST rate limit getting low: %d remaining, requests are being slowed down\n", remaining)
	}
}

// GetRateLimit returns the last reported rate limit information.
func (s *Status) GetRateLimit() RateLimitInfo {
	s.rateLimitMu.RLock()
	defer s.rateLimitMu.RUnlock()
	return s.rateLimit
}

// AddRepos increments the total repository count.
func (s *Status) AddRepos(n int) {
	atomic.AddInt64(&s.repoTotal, int64(n))
}

// RecordRepo records the outcome of one repository.
func (s *Status) RecordRepo(partial, failed bool) {
	atomic.AddInt64(&s.repoDone, 1)
	switch {
	case failed:
		atomic.AddInt64(&s.failed, 1)
	case partial:
		atomic.AddInt64(&s.partial, 1)
	}
}

// Warnf prints a warning and counts it for the summary.
func (s *Status) Warnf(format string, args ...any) {
	atomic.AddInt64(&s.warnings, 1)
	pterm.Warning.Printf(format, args...)
}

// Errorf prints an error and counts it for the summary.
func (s *Status) Errorf(format string, args ...any) {
	atomic.AddInt64(&s.errors, 1)
	pterm.Error.Printf(format, args...)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	APICalls  int64
	RepoTotal int64
	RepoDone  int64
	Partial   int64
	Failed    int64
	Warnings  int64
	Errors    int64
	RateLimit RateLimitInfo
}

// Succeeded returns the number of repositories processed without problems.
func (s Snapshot) Succeeded() int64 {
	return s.RepoDone - s.Partial - s.Failed
}

// Snapshot returns the current counters.
func (s *Status) Snapshot() Snapshot {
	return Snapshot{
		APICalls:  atomic.LoadInt64(&s.apiCalls),
		RepoTotal: atomic.LoadInt64(&s.repoTotal),
		RepoDone:  atomic.LoadInt64(&s.repoDone),
		Partial:   atomic.LoadInt64(&s.partial),
		Failed:    atomic.LoadInt64(&s.failed),
		Warnings:  atomic.LoadInt64(&s.warnings),
		Errors:    atomic.LoadInt64(&s.errors),
		RateLimit: s.GetRateLimit(),
	}
}

// PrintRateLimit prints the last reported rate limit status.
func (s *Status) PrintRateLimit() {
	rateLimit := s.GetRateLimit()
	if !rateLimit.Observed {
		return
	}

	restReset := "unknown"
	if !rateLimit.Reset.IsZero() {
		restReset = rateLimit.Reset.Format("15:04:05")
	}

	if rateLimit.Limit > 0 {
		pterm.Info.Printf("%d/%d calls used | %d remaining | resets at: %s\n",
			rateLimit.Limit-rateLimit.Remaining, rateLimit.Limit, rateLimit.Remaining, restReset)
		return
	}
	pterm.Info.Printf("%d remaining | resets at: %s\n", rateLimit.Remaining, restReset)
}
