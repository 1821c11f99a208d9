// This file (validation.go) contains input validation for a run's configuration.
// It validates organization names against GitHub's naming rules, API base URLs, and
// configuration file paths.
package stats

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// orgNamePattern validates GitHub organization names according to GitHub's rules:
// - Must start and end with alphanumeric character
// - Can contain alphanumeric characters and hyphens in the middle
// - Maximum 39 characters (enforced separately)
var orgNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// validateOrgName checks if the organization name is valid according to GitHub's rules.
// GitHub organization names:
//   - Must be 1-39 characters long
//   - Can only contain alphanumeric characters and hyphens
//   - Cannot start or end with a hyphen
func validateOrgName(org string) error {
	if org == "" {
		return fmt.Errorf("organization name cannot be empty")
	}
	if len(org) > 39 {
		return fmt.Errorf("organization name too long (max 39 characters): %s", org)
	}
	if !orgNamePattern.MatchString(org) {
		return fmt.Errorf("invalid organization name format: %s (must contain only alphanumeric characters and hyphens, cannot start/end with hyphen)", org)
	}
	return nil
}

// validateAPIURL checks that the API base is an absolute http(s) URL without query or fragment.
func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL %s: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %s: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %s: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid API URL %s: must not contain a query or fragment", raw)
	}
	return nil
}

// sensitiveDirs are never read as configuration.
var sensitiveDirs = []string{
	".git", ".ssh", ".aws", ".kube", ".docker", ".gnupg",
}

// validateConfigPath validates that a configuration file path is safe to read.
// Returns the absolute path if valid, or an error if the path is unsafe.
func validateConfigPath(file string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(file))
	if err != nil {
		return "", fmt.Errorf("invalid config path %s: %w", file, err)
	}

	for _, segment := range strings.Split(filepath.ToSlash(absPath), "/") {
		for _, danger := range sensitiveDirs {
			if segment == danger {
				return "", fmt.Errorf("access denied: cannot read configuration from %s directory for security reasons", danger)
			}
		}
	}

	if ext := strings.ToLower(filepath.Ext(absPath)); ext != ".toml" {
		return "", fmt.Errorf("invalid config file extension %q: only .toml is supported", ext)
	}

	return absPath, nil
}
