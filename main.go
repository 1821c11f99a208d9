// gh community-metrics is a GitHub CLI extension that collects pull request review and
// issue triage metrics for a GitHub organization and publishes them as a single JSON
// snapshot for community dashboards.
//
// Usage:
//
//	gh community-metrics run --org myorg
//	GITHUB_TOKEN=... GITHUB_ORG=myorg gh community-metrics run
//
// For full documentation, see: https://github.com/mona-actions/gh-community-metrics
package main

import (
	"github.com/mona-actions/gh-community-metrics/cmd"
)

// Version is the current version of gh community-metrics.
// It can be overridden at build time using:
//
//	go build -ldflags="-X main.Version=v1.0.0"
//
// During releases, this is automatically set from the git tag.
var Version = "dev"

func main() {
	// Set version in cmd package so it can be accessed by subcommands
	cmd.Version = Version
	cmd.Execute()
}
