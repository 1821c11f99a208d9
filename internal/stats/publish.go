// This file (publish.go) delivers the finished snapshot to every configured sink.
//
// Each sink gets up to publishAttempts tries with exponential backoff. When a sink keeps
// failing, the snapshot is written to a timestamped recovery file next to the output file so
// the run's work is not lost.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/ghapi"
	"github.com/mona-actions/gh-community-metrics/internal/output"
	"github.com/pterm/pterm"
)

const (
	publishAttempts         = 3
	publishBaseRetryDelay   = 1 * time.Second
	recoveryTimestampLayout = "20060102-150405"
)

// PublishOutcome records how one sink was served.
type PublishOutcome struct {
	Target       string
	Attempts     int
	RecoveryFile string // set when the snapshot went to a recovery file instead
	Err          error  // set when neither the sink nor the recovery file could be written
}

// recoveryPath returns the fallback location for a snapshot that could not be published.
func recoveryPath(outputFile, org string, at time.Time) string {
	return fmt.Sprintf("%s.recovery-%s-%s.json", outputFile, org, at.UTC().Format(recoveryTimestampLayout))
}

// publishWithRetry attempts to publish the snapshot with retry logic and a fallback file.
// This function provides multiple layers of protection against data loss:
//  1. Retries up to 3 times with exponential backoff for transient errors
//  2. Falls back to a timestamped recovery file if the sink consistently fails
//  3. Reports an error only if both the sink and the recovery file fail
func publishWithRetry(ctx context.Context, sink output.Sink, snapshot output.AnalyticsSnapshot, recoveryFile string, sleep ghapi.SleepFunc) PublishOutcome {
	outcome := PublishOutcome{Target: sink.Name()}

	var lastErr error
	for attempt := 0; attempt < publishAttempts; attempt++ {
		outcome.Attempts = attempt + 1
		lastErr = sink.Publish(ctx, snapshot)

		if lastErr == nil {
			if attempt > 0 {
				pterm.Success.Printf("✓ Published to %s after %d attempt(s)\n", outcome.Target, attempt+1)
			}
			return outcome
		}

		if attempt < publishAttempts-1 {
			retryDelay := publishBaseRetryDelay * time.Duration(1<<uint(attempt)) // 1s, 2s
			pterm.Warning.Printf("⚠️  Publish attempt %d/%d to %s failed: %v (retrying in %v)\n",
				attempt+1, publishAttempts, outcome.Target, lastErr, retryDelay)
			if err := sleep(ctx, retryDelay); err != nil {
				break
			}
		}
	}

	pterm.Warning.Printf("⚠️  Publishing to %s failed after %d attempt(s), trying recovery file...\n", outcome.Target, outcome.Attempts)

	fallbackErr := output.WriteSnapshotJSON(recoveryFile, snapshot)
	if fallbackErr == nil {
		outcome.RecoveryFile = recoveryFile
		pterm.Warning.Printf("✓ Saved snapshot to recovery file: %s\n", recoveryFile)
		return outcome
	}

	pterm.Error.Printf("🔥 CRITICAL: Could not publish to %s (%v) OR write recovery file (%v)\n", outcome.Target, lastErr, fallbackErr)
	outcome.Err = fmt.Errorf("failed to publish to %s: %w (recovery file also failed: %v)", outcome.Target, lastErr, fallbackErr)
	return outcome
}
