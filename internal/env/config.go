// Package env resolves overlap-tunnel configuration from the process
// environment and an optional fallback .env file.
//
// Resolution never mutates the process environment: Merge is a pure
// function over two maps, and Resolve only reads the file when the
// Cloudflare credentials are missing from the environment.
package env

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentivo/overlap/internal/config"
)

var (
	// ErrMissingCredentials is returned when the API token or account ID
	// is absent from both the environment and the fallback file.
	ErrMissingCredentials = errors.New("set " + KeyCloudflareAPIToken + " and " + KeyCloudflareAccountID)

	// ErrInvalidPort is returned when PORT is not a TCP port number.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidBackend is returned for an unknown secret backend.
	ErrInvalidBackend = errors.New("invalid secret backend")
)

// Config is the resolved configuration for one provisioning run.
type Config struct {
	APIToken      string
	AccountID     string
	Domain        string
	Subdomain     string
	Port          string
	Repo          string
	SecretBackend string
	GitHubToken   string

	// FromFile reports whether the fallback file was consulted.
	FromFile bool
}

// Merge overlays file on environ and applies defaults. The tunnel
// settings (domain, subdomain, port) come from environ only. Credentials,
// the repository and the secret backend settings take the file value over
// environ when the file defines one. Empty and placeholder values count as
// unset.
func Merge(environ, file map[string]string) Config {
	fromEnv := func(key, def string) string {
		if v := strings.TrimSpace(environ[key]); !IsPlaceholder(v) {
			return v
		}
		return def
	}
	get := func(key, def string) string {
		if v := strings.TrimSpace(file[key]); !IsPlaceholder(v) {
			return v
		}
		return fromEnv(key, def)
	}

	return Config{
		APIToken:      get(KeyCloudflareAPIToken, ""),
		AccountID:     get(KeyCloudflareAccountID, ""),
		Domain:        fromEnv(KeyTunnelDomain, config.DefaultDomain),
		Subdomain:     fromEnv(KeyTunnelSubdomain, config.DefaultSubdomain),
		Port:          fromEnv(KeyPort, config.DefaultPort),
		Repo:          get(KeyGitHubRepo, config.DefaultRepo),
		SecretBackend: get(KeySecretBackend, config.DefaultSecretBackend),
		GitHubToken:   get(KeyGitHubToken, ""),
	}
}

// HasCredentials reports whether both Cloudflare credentials are set.
func (c Config) HasCredentials() bool {
	return c.APIToken != "" && c.AccountID != ""
}

// Validate checks the configuration is usable for a provisioning run.
func (c Config) Validate() error {
	if !c.HasCredentials() {
		return ErrMissingCredentials
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}

	switch c.SecretBackend {
	case config.SecretBackendCLI, config.SecretBackendAPI, config.SecretBackendNone:
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)", ErrInvalidBackend, c.SecretBackend,
			config.SecretBackendCLI, config.SecretBackendAPI, config.SecretBackendNone)
	}

	return nil
}

// Resolve builds the configuration from environ, falling back to envFile
// only when the Cloudflare credentials are missing. The file is not opened
// at all when environ already carries both credentials. Only the
// credentials are checked; call Validate once overrides are applied.
func Resolve(environ map[string]string, envFile string) (Config, error) {
	cfg := Merge(environ, nil)
	if cfg.HasCredentials() {
		return cfg, nil
	}

	file, err := ParseFile(envFile)
	if err != nil {
		if isNotExist(err) {
			return cfg, ErrMissingCredentials
		}
		return cfg, err
	}

	cfg = Merge(environ, file)
	cfg.FromFile = true
	if !cfg.HasCredentials() {
		return cfg, ErrMissingCredentials
	}
	return cfg, nil
}
