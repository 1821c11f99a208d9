// Package stats orchestrates a community-metrics collection run.
//
// This file (config.go) defines the run configuration, its defaults, and the optional TOML
// configuration file. Values are layered with the precedence flags > environment > file >
// defaults; the CLI performs the layering and the Runner validates the result once before any
// network call.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mona-actions/gh-community-metrics/internal/ghapi"
	"github.com/mona-actions/gh-community-metrics/internal/output"
)

// Configuration defaults.
const (
	DefaultOutputFile   = "public/data/analytics.json"
	DefaultLookbackDays = 180
	DefaultMaxRepos     = 100
)

// Config holds all configuration options for one run. It is immutable once the run starts.
//
// Zero value behavior:
//   - Organization and Token: required; an empty Token ends the run with ghapi.ErrCredentialMissing
//   - APIURL, OutputFile, LookbackDays, MaxRepos, RequestTimeout: filled by ApplyDefaults
//   - ObjectStore: disabled unless both endpoint and bucket are set
type Config struct {
	Organization   string        // organization whose repositories are analyzed
	Token          string        // bearer token for the GitHub API
	APIURL         string        // REST API base, e.g. https://ghe.example.com/api/v3
	OutputFile     string        // snapshot path
	LookbackDays   int           // activity older than this is ignored
	MaxRepos       int           // upper bound on repositories processed
	RequestTimeout time.Duration // per HTTP request
	DryRun         bool          // validate and print the plan without API calls
	Verbose        bool          // enable debug output
	Version        string        // shown in the banner

	ObjectStore output.ObjectStoreConfig
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.APIURL == "" {
		c.APIURL = ghapi.DefaultBaseURL
	}
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.MaxRepos == 0 {
		c.MaxRepos = DefaultMaxRepos
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = ghapi.DefaultTimeout
	}
}

// Validate checks everything except the token, whose absence is a skip condition rather than an
// invalid configuration.
func (c Config) Validate() error {
	var errs []error

	if err := validateOrgName(c.Organization); err != nil {
		errs = append(errs, fmt.Errorf("invalid organization name: %w", err))
	}
	if err := validateAPIURL(c.APIURL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		errs = append(errs, errors.New("output file cannot be empty"))
	}
	if c.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("lookback days must be positive, got %d", c.LookbackDays))
	}
	if c.MaxRepos <= 0 {
		errs = append(errs, fmt.Errorf("max repos must be positive, got %d", c.MaxRepos))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request timeout cannot be negative, got %s", c.RequestTimeout))
	}
	if c.ObjectStore.Enabled() {
		if err := c.ObjectStore.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Lookback returns the lookback window as a duration.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// FileConfig is the TOML configuration file layout.
//
//	organization  = "octo-org"
//	api_url       = "https://api.github.com"
//	output        = "public/data/analytics.json"
//	lookback_days = 180
//	max_repos     = 100
//
//	[object_store]
//	endpoint   = "minio.internal:9000"
//	bucket     = "community-metrics"
//	object_key = "analytics.json"
//	access_key = "..."
//	secret_key = "..."
//
// The token is never read from the file; it comes from the environment or a flag.
type FileConfig struct {
	Organization   string          `toml:"organization"`
	APIURL         string          `toml:"api_url"`
	Output         string          `toml:"output"`
	LookbackDays   int             `toml:"lookback_days"`
	MaxRepos       int             `toml:"max_repos"`
	RequestTimeout string          `toml:"request_timeout"`
	ObjectStore    FileObjectStore `toml:"object_store"`
}

// FileObjectStore is the [object_store] table.
type FileObjectStore struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	ObjectKey string `toml:"object_key"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// LoadConfigFile reads a TOML configuration file. Unknown keys are rejected so typos surface.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig

	absPath, err := validateConfigPath(path)
	if err != nil {
		return fc, err
	}

	md, err := toml.DecodeFile(absPath, &fc)
	if err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fc, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if fc.RequestTimeout != "" {
		if _, err := time.ParseDuration(fc.RequestTimeout); err != nil {
			return fc, fmt.Errorf("invalid request_timeout in %s: %w", path, err)
		}
	}

	return fc, nil
}

// ApplyTo copies every value set in the file onto c.
func (fc FileConfig) ApplyTo(c *Config) {
	setString(&c.Organization, fc.Organization)
	setString(&c.APIURL, fc.APIURL)
	setString(&c.OutputFile, fc.Output)
	if fc.LookbackDays != 0 {
		c.LookbackDays = fc.LookbackDays
	}
	if fc.MaxRepos != 0 {
		c.MaxRepos = fc.MaxRepos
	}
	if d, err := time.ParseDuration(fc.RequestTimeout); err == nil && fc.RequestTimeout != "" {
		c.RequestTimeout = d
	}

	store := fc.ObjectStore
	setString(&c.ObjectStore.Endpoint, store.Endpoint)
	setString(&c.ObjectStore.Bucket, store.Bucket)
	setString(&c.ObjectStore.ObjectKey, store.ObjectKey)
	setString(&c.ObjectStore.Region, store.Region)
	setString(&c.ObjectStore.AccessKey, store.AccessKey)
	setString(&c.ObjectStore.SecretKey, store.SecretKey)
	if store.UseSSL {
		c.ObjectStore.UseSSL = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
