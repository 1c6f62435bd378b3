package env

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentivo/overlap/internal/config"
)

// ValidationMode controls how validation is performed
type ValidationMode string

const (
	// ValidationModeFast does basic format checks only (no API calls)
	ValidationModeFast ValidationMode = "fast"
	// ValidationModeDeep also verifies credentials against the API
	ValidationModeDeep ValidationMode = "deep"
)

// ValidationResult holds the result of validating one field
type ValidationResult struct {
	Name    string
	Valid   bool
	Error   error
	Skipped bool

	// Verified is set when the value was checked against the API rather
	// than by format alone.
	Verified bool
}

// Verifier checks credentials against the tunneling provider.
type Verifier interface {
	VerifyToken(ctx context.Context) error
	VerifyAccount(ctx context.Context) error
	ZoneID(ctx context.Context, domain string) (string, error)
}

var (
	hexID      = regexp.MustCompile(`^[a-f0-9]{32}$`)
	domainName = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
	hostLabel  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// ValidateFast checks the format of every field without network calls.
func ValidateFast(cfg Config) []ValidationResult {
	results := []ValidationResult{
		check(KeyCloudflareAPIToken, cfg.APIToken, func(v string) error {
			if len(v) < 10 {
				return fmt.Errorf("API token appears too short")
			}
			return nil
		}),
		check(KeyCloudflareAccountID, cfg.AccountID, func(v string) error {
			if !hexID.MatchString(v) {
				return fmt.Errorf("account ID must be a 32-character hexadecimal string")
			}
			return nil
		}),
		check(KeyTunnelDomain, cfg.Domain, func(v string) error {
			if !domainName.MatchString(v) {
				return fmt.Errorf("invalid domain format")
			}
			return nil
		}),
		check(KeyTunnelSubdomain, cfg.Subdomain, func(v string) error {
			if !hostLabel.MatchString(v) {
				return fmt.Errorf("subdomain must be a single DNS label")
			}
			return nil
		}),
		check(KeyPort, cfg.Port, func(v string) error {
			if p, err := strconv.Atoi(v); err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		}),
		check(KeyGitHubRepo, cfg.Repo, func(v string) error {
			owner, name, ok := strings.Cut(v, "/")
			if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
				return fmt.Errorf("repository must be owner/repo")
			}
			return nil
		}),
		check(KeySecretBackend, cfg.SecretBackend, func(v string) error {
			switch v {
			case config.SecretBackendCLI, config.SecretBackendAPI, config.SecretBackendNone:
				return nil
			}
			return fmt.Errorf("backend must be gh, api or none")
		}),
	}

	// The GitHub token only matters for the api backend.
	if cfg.SecretBackend == config.SecretBackendAPI {
		results = append(results, check(KeyGitHubToken, cfg.GitHubToken, func(string) error { return nil }))
	} else {
		results = append(results, ValidationResult{Name: KeyGitHubToken, Skipped: true})
	}

	return results
}

// ValidateDeep runs ValidateFast and then verifies the credentials and zone
// through v. API checks are skipped when the token or account ID is
// malformed.
func ValidateDeep(ctx context.Context, cfg Config, v Verifier) []ValidationResult {
	results := ValidateFast(cfg)
	if !results[0].Valid || !results[1].Valid {
		return results
	}

	results[0] = verified(KeyCloudflareAPIToken, v.VerifyToken(ctx))
	results[1] = verified(KeyCloudflareAccountID, v.VerifyAccount(ctx))
	if results[0].Valid && results[2].Valid {
		_, err := v.ZoneID(ctx, cfg.Domain)
		results[2] = verified(KeyTunnelDomain, err)
	}
	return results
}

// HasFailures reports whether any result is a failure.
func HasFailures(results []ValidationResult) bool {
	for _, r := range results {
		if !r.Skipped && !r.Valid {
			return true
		}
	}
	return false
}

func check(key, value string, fn func(string) error) ValidationResult {
	if IsPlaceholder(value) {
		return ValidationResult{Name: key, Error: fmt.Errorf("%s is required", key)}
	}
	err := fn(value)
	return ValidationResult{Name: key, Valid: err == nil, Error: err}
}

func verified(key string, err error) ValidationResult {
	return ValidationResult{Name: key, Valid: err == nil, Error: err, Verified: err == nil}
}
