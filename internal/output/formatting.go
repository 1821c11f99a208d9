// This file (formatting.go) contains functions for displaying progress, summaries,
// and metric overviews in a consistent format using pterm.
//
// Key features:
//   - Styled section headers and organization display
//   - Repository discovery and per-repository progress lines
//   - Metric overview of the snapshot that was just built
//   - Completion summaries with API statistics
//   - Consistent emoji usage for visual clarity
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Repository result statuses shown in progress lines.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// PrintSectionHeader prints a prominent section header with separator.
func PrintSectionHeader(title string) {
	pterm.Println()
	pterm.DefaultSection.Println(title)
}

// PrintOrgHeader prints the organization header with styling.
func PrintOrgHeader(orgName, runID string) {
	pterm.Println()
	pterm.Info.Println(separator)
	pterm.Info.Printf("🏢 Organization: %s\n", orgName)
	pterm.Info.Printf("🆔 Run: %s\n", runID)
	pterm.Info.Println(separator)
	pterm.Println()
}

// RepoDiscovery holds repository discovery information.
type RepoDiscovery struct {
	Found     int // active repositories returned by the listing
	Selected  int // repositories that will be processed
	MaxRepos  int
	Lookback  time.Duration
	CutoffUTC time.Time
}

// PrintRepoDiscovery prints repository discovery information.
func PrintRepoDiscovery(info RepoDiscovery) {
	pterm.Info.Println("🔭 Repository Discovery")
	pterm.Info.Printf("   ├─ Found: %d active repositories\n", info.Found)

	if info.Selected < info.Found {
		pterm.Info.Printf("   ├─ Selected: %d (limit %d)\n", info.Selected, info.MaxRepos)
	} else {
		pterm.Info.Printf("   ├─ Selected: %d\n", info.Selected)
	}

	pterm.Info.Printf("   └─ Activity since: %s (%s lookback)\n",
		info.CutoffUTC.Format(time.RFC3339), FormatDuration(info.Lookback))

	pterm.Println()
	pterm.Success.Println("✅ Repository discovery complete")
}

// PrintRepoProcessingHeader prints the repository processing phase header.
func PrintRepoProcessingHeader(count int) {
	pterm.Println()
	pterm.Info.Println(separator)
	pterm.Info.Printf("📚 Processing %d Repositories\n", count)
	pterm.Info.Println(separator)
	pterm.Println()
}

// RepoProgress is the outcome of collecting one repository.
type RepoProgress struct {
	Current int
	Total   int
	Name    string
	Status  string
	PRs     int
	Reviews int
	Issues  int
	Reason  string
}

// PrintRepoProgress prints a single repository progress line.
func PrintRepoProgress(p RepoProgress) {
	branch := "├─"
	if p.Current == p.Total {
		branch = "└─"
	}
	prefix := fmt.Sprintf("   %s [%d/%d] %s", branch, p.Current, p.Total, p.Name)
	counts := fmt.Sprintf("%d PRs, %d reviews, %d issues", p.PRs, p.Reviews, p.Issues)

	switch p.Status {
	case StatusSuccess:
		pterm.Info.Printf("%s ✅ %s\n", prefix, counts)
	case StatusPartial:
		pterm.Warning.Printf("%s ⚠️  partial (%s): %s\n", prefix, counts, p.Reason)
	default:
		pterm.Error.Printf("%s ❌ failed: %s\n", prefix, p.Reason)
	}
}

// PrintMetricsOverview prints the headline numbers of a snapshot.
func PrintMetricsOverview(snapshot AnalyticsSnapshot) {
	rm := snapshot.ReviewMetrics
	im := snapshot.IssueMetrics

	pterm.Info.Println("🔍 Review Metrics")
	pterm.Info.Printf("   ├─ PRs: %s total | %s open | %s merged\n",
		FormatNumber(int64(rm.TotalPRs)), FormatNumber(int64(rm.OpenPRs)), FormatNumber(int64(rm.MergedPRs)))
	pterm.Info.Printf("   ├─ Reviews: %s total | %d last 7d | %d last 30d\n",
		FormatNumber(int64(rm.TotalReviews)), rm.ReviewsLast7Days, rm.ReviewsLast30Days)
	pterm.Info.Printf("   ├─ Average time to review: %.1fh\n", rm.AverageReviewTimeHours)
	pterm.Info.Printf("   └─ Needing review: %d | Ready to merge: %d\n",
		rm.ReviewStates.Pending, len(rm.PRsReadyToMerge))
	pterm.Println()

	pterm.Info.Println("🗂️  Issue Metrics")
	pterm.Info.Printf("   ├─ Issues: %s total | %s open | %s closed\n",
		FormatNumber(int64(im.TotalIssues)), FormatNumber(int64(im.OpenIssues)), FormatNumber(int64(im.ClosedIssues)))
	pterm.Info.Printf("   └─ Pending triage: %d | Recently triaged: %d\n", im.PendingTriage, im.RecentlyTriaged)
	pterm.Println()
}

// DryRunPlan describes what a run would do.
type DryRunPlan struct {
	Organization string
	APIURL       string
	MaxRepos     int
	LookbackDays int
	Targets      []string
}

// PrintDryRun prints the plan of a dry run.
func PrintDryRun(plan DryRunPlan) {
	pterm.Info.Println("🧪 Dry run: no API calls will be made")
	pterm.Info.Printf("   ├─ Organization: %s\n", plan.Organization)
	pterm.Info.Printf("   ├─ API: %s\n", plan.APIURL)
	pterm.Info.Printf("   ├─ Max repositories: %d\n", plan.MaxRepos)
	pterm.Info.Printf("   ├─ Lookback: %d days\n", plan.LookbackDays)
	pterm.Info.Printf("   └─ Outputs: %s\n", joinWithComma(plan.Targets))
	pterm.Println()
}

// CompletionSummary holds the final summary information.
type CompletionSummary struct {
	RunID          string
	RepoCount      int
	Succeeded      int
	Partial        int
	Failed         int
	Outputs        []string
	Duration       time.Duration
	APICalls       int64
	QuotaRemaining int64 // -1 when the API never reported it
	QuotaReset     time.Time
	Warnings       int
	Errors         int
}

// PrintCompletionSummary prints the final completion summary.
func PrintCompletionSummary(summary CompletionSummary) {
	pterm.Println()
	pterm.Success.Println(separator)
	pterm.Success.Println("✨ Collection Complete!")
	pterm.Success.Println(separator)
	pterm.Println()

	pterm.Info.Println("📈 Summary")
	pterm.Info.Printf("   ├─ Run: %s\n", summary.RunID)
	pterm.Info.Printf("   ├─ Repositories: %d (%d ok, %d partial, %d failed)\n",
		summary.RepoCount, summary.Succeeded, summary.Partial, summary.Failed)
	pterm.Info.Printf("   ├─ Outputs: %s\n", joinWithComma(summary.Outputs))
	pterm.Info.Printf("   └─ Duration: %s\n", FormatDuration(summary.Duration))
	pterm.Println()

	pterm.Info.Println("🌐 API Usage")
	if summary.QuotaRemaining < 0 {
		pterm.Info.Printf("   └─ REST: %s calls (quota not reported)\n", FormatNumber(summary.APICalls))
	} else {
		pterm.Info.Printf("   ├─ REST: %s calls, %s remaining\n",
			FormatNumber(summary.APICalls), FormatNumber(summary.QuotaRemaining))
		if summary.QuotaReset.IsZero() {
			pterm.Info.Println("   └─ Reset: unknown")
		} else {
			pterm.Info.Printf("   └─ Reset: %s (in %s)\n",
				summary.QuotaReset.Format("15:04:05"), FormatTimeUntil(summary.QuotaReset))
		}
	}
	pterm.Println()

	if summary.Warnings > 0 || summary.Errors > 0 {
		if summary.Warnings > 0 {
			pterm.Warning.Printf("⚠️  Warnings: %d (check logs for details)\n", summary.Warnings)
		}
		if summary.Errors > 0 {
			pterm.Error.Printf("❌ Errors: %d (check logs for details)\n", summary.Errors)
		}
		pterm.Println()
	}
}

// Helper functions

func joinWithComma(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// FormatDuration formats a duration in a human-readable way (e.g., "5m30s", "2h15m").
// Durations of a day or more are shown in days.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	} else if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// FormatNumber formats a number with thousand separators (e.g., "1,234,567").
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatWithCommas(n)
}

// formatWithCommas adds thousand separators (commas) to a number.
func formatWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(digit))
	}
	return string(result)
}

// FormatTimeUntil formats the time until a future time in a human-readable way (e.g., "5m", "2h15m").
func FormatTimeUntil(t time.Time) string {
	d := time.Until(t)
	if d < 0 {
		return "now"
	}

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
