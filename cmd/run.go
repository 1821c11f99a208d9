package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/ghapi"
	"github.com/mona-actions/gh-community-metrics/internal/stats"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Environment variables read by the run command. Flags take precedence over them.
const (
	envToken       = "GITHUB_TOKEN"
	envOrg         = "GITHUB_ORG"
	envS3AccessKey = "S3_ACCESS_KEY"
	envS3SecretKey = "S3_SECRET_KEY"
)

// runOptions holds the raw flag values of the run command.
type runOptions struct {
	configFile   string
	org          string
	token        string
	apiURL       string
	output       string
	lookbackDays int
	maxRepos     int
	timeout      time.Duration
	dryRun       bool
	verbose      bool

	s3Endpoint  string
	s3Bucket    string
	s3Key       string
	s3Region    string
	s3AccessKey string
	s3SecretKey string
	s3SSL       bool
}

func newRunCmd() *cobra.Command {
	return buildRunCmd(&runOptions{})
}

// buildRunCmd returns the run command with its flags bound to opts.
func buildRunCmd(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect community metrics and publish the snapshot",
		Long: `Collect pull request review and issue triage metrics for one GitHub organization.

Examples:
  gh community-metrics run                                  # Uses GITHUB_TOKEN and GITHUB_ORG
  gh community-metrics run --org mona-actions -v            # Verbose output
  gh community-metrics run --org mona-actions --max-repos 20 --lookback-days 90
  gh community-metrics run --config metrics.toml --dry-run  # Preview without API calls
  gh community-metrics run --org myorg --api-url https://github.company.com/api/v3

The snapshot replaces public/data/analytics.json unless --output is set. Without a token
the run is skipped and the command exits successfully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := buildConfig(cmd, opts, os.Getenv)
			if err != nil {
				return err
			}

			// Set up context with timeout and signal handling
			// 24-hour timeout prevents indefinite hangs if GitHub API becomes unresponsive
			ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
			defer cancel()

			// Handle interrupt signals
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				// Wait for first signal
				sig := <-sigChan

				if sig == syscall.SIGTERM {
					fmt.Fprintln(os.Stderr, "\nReceived termination signal (SIGTERM), shutting down gracefully...")
				} else {
					fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully... (press Ctrl-C again to force quit)")
				}
				cancel()

				// For SIGTERM (from timeout/systemd), don't wait for second signal - just exit gracefully
				if sig == syscall.SIGTERM {
					return
				}

				// For SIGINT (Ctrl-C), wait for second signal to force quit
				<-sigChan
				fmt.Fprintln(os.Stderr, "\nForce quitting...")
				os.Exit(130) // Standard exit code for SIGINT
			}()

			return skipWithoutCredential(stats.RunWithContext(ctx, config))
		},
	}

	cmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

General Flags:
  -o, --org string            GitHub organization to analyze (env GITHUB_ORG)
  -t, --token string          GitHub token (env GITHUB_TOKEN)
  -c, --config string         TOML configuration file
  -O, --output string         Snapshot path (default public/data/analytics.json)
      --api-url string        GitHub REST API base URL (default https://api.github.com)
      --lookback-days int     Ignore activity older than this many days (default 180)
      --max-repos int         Maximum number of repositories to process (default 100)
      --timeout duration      Per-request timeout (default 30s)
  -v, --verbose               Enable verbose output
      --dry-run               Show what would be collected without making API calls
  -h, --help                  help for run

Object Store Flags (S3-compatible upload of the same snapshot):
      --s3-endpoint string    Endpoint, e.g. minio.internal:9000
      --s3-bucket string      Bucket name
      --s3-key string         Object key (default analytics.json)
      --s3-region string      Bucket region
      --s3-access-key string  Access key (env S3_ACCESS_KEY)
      --s3-secret-key string  Secret key (env S3_SECRET_KEY)
      --s3-ssl                Use TLS{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)

	f := cmd.Flags()
	f.StringVarP(&opts.org, "org", "o", "", "GitHub organization to analyze (env GITHUB_ORG)")
	f.StringVarP(&opts.token, "token", "t", "", "GitHub token (env GITHUB_TOKEN)")
	f.StringVarP(&opts.configFile, "config", "c", "", "TOML configuration file")
	f.StringVarP(&opts.output, "output", "O", "", "Snapshot path (default "+stats.DefaultOutputFile+")")
	f.StringVar(&opts.apiURL, "api-url", "", "GitHub REST API base URL (default "+ghapi.DefaultBaseURL+")")
	f.IntVar(&opts.lookbackDays, "lookback-days", stats.DefaultLookbackDays, "Ignore activity older than this many days")
	f.IntVar(&opts.maxRepos, "max-repos", stats.DefaultMaxRepos, "Maximum number of repositories to process")
	f.DurationVar(&opts.timeout, "timeout", ghapi.DefaultTimeout, "Per-request timeout")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be collected without making API calls")

	f.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint")
	f.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket")
	f.StringVar(&opts.s3Key, "s3-key", "", "S3 object key")
	f.StringVar(&opts.s3Region, "s3-region", "", "S3 region")
	f.StringVar(&opts.s3AccessKey, "s3-access-key", "", "S3 access key (env S3_ACCESS_KEY)")
	f.StringVar(&opts.s3SecretKey, "s3-secret-key", "", "S3 secret key (env S3_SECRET_KEY)")
	f.BoolVar(&opts.s3SSL, "s3-ssl", false, "Use TLS for the S3 endpoint")

	return cmd
}

// buildConfig layers defaults, the config file, the environment, and explicitly set flags,
// in increasing order of precedence.
func buildConfig(cmd *cobra.Command, opts *runOptions, getenv func(string) string) (stats.Config, error) {
	config := stats.DefaultConfig()
	config.Version = Version

	if opts.configFile != "" {
		fc, err := stats.LoadConfigFile(opts.configFile)
		if err != nil {
			return config, err
		}
		fc.ApplyTo(&config)
	}

	setFromEnv(&config.Organization, getenv(envOrg))
	setFromEnv(&config.Token, getenv(envToken))
	setFromEnv(&config.ObjectStore.AccessKey, getenv(envS3AccessKey))
	setFromEnv(&config.ObjectStore.SecretKey, getenv(envS3SecretKey))

	changed := cmd.Flags().Changed
	if changed("org") {
		config.Organization = opts.org
	}
	if changed("token") {
		config.Token = opts.token
	}
	if changed("output") {
		config.OutputFile = opts.output
	}
	if changed("api-url") {
		config.APIURL = opts.apiURL
	}
	if changed("lookback-days") {
		config.LookbackDays = opts.lookbackDays
	}
	if changed("max-repos") {
		config.MaxRepos = opts.maxRepos
	}
	if changed("timeout") {
		config.RequestTimeout = opts.timeout
	}
	if changed("s3-endpoint") {
		config.ObjectStore.Endpoint = opts.s3Endpoint
	}
	if changed("s3-bucket") {
		config.ObjectStore.Bucket = opts.s3Bucket
	}
	if changed("s3-key") {
		config.ObjectStore.ObjectKey = opts.s3Key
	}
	if changed("s3-region") {
		config.ObjectStore.Region = opts.s3Region
	}
	if changed("s3-access-key") {
		config.ObjectStore.AccessKey = opts.s3AccessKey
	}
	if changed("s3-secret-key") {
		config.ObjectStore.SecretKey = opts.s3SecretKey
	}
	if changed("s3-ssl") {
		config.ObjectStore.UseSSL = opts.s3SSL
	}

	config.DryRun = opts.dryRun
	config.Verbose = opts.verbose

	return config, nil
}

func setFromEnv(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// skipWithoutCredential turns a missing token into a warning so scheduled jobs without a
// token succeed without publishing anything.
func skipWithoutCredential(err error) error {
	if errors.Is(err, ghapi.ErrCredentialMissing) {
		pterm.Warning.Printf("⚠️  %s is not set, skipping metrics collection\n", envToken)
		return nil
	}
	return err
}
