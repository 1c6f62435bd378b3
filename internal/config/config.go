// Package config provides centralized defaults and paths for overlap-tunnel.
//
// This package defines:
// - Default tunnel settings used when the environment leaves them unset
// - Fixed file names inside the project directory (.env, tunnel.json)
// - Default timeouts for the GitHub CLI probes
//
// overlap-tunnel works on a single project directory (default: the current
// working directory). Both the fallback .env file and the generated
// tunnel.json live there.
//
// Environment variables:
//   - OVERLAP_DIR: Override the project directory (default: $PWD)
package config

import (
	"os"
	"path/filepath"
	"time"
)

// === Default tunnel settings ===

const (
	// DefaultDomain is the zone the public hostname is created under.
	DefaultDomain = "neevs.io"

	// DefaultSubdomain is the leftmost label of the public hostname.
	DefaultSubdomain = "overlap"

	// DefaultPort is the local port the tunnel forwards to.
	DefaultPort = "3000"

	// DefaultRepo is the GitHub repository that receives the tunnel token secret.
	DefaultRepo = "agentivo/overlap"

	// TunnelNamePrefix is prepended to the subdomain to form the tunnel name.
	TunnelNamePrefix = "overlap-"

	// SecretName is the repository secret the tunnel token is stored under.
	SecretName = "TUNNEL_TOKEN"
)

// === Secret backends ===

const (
	// SecretBackendCLI pushes secrets through the gh CLI.
	SecretBackendCLI = "gh"

	// SecretBackendAPI pushes secrets through the GitHub REST API.
	SecretBackendAPI = "api"

	// SecretBackendNone skips the secret push entirely.
	SecretBackendNone = "none"

	// DefaultSecretBackend is used when TUNNEL_SECRET_BACKEND is unset.
	DefaultSecretBackend = SecretBackendCLI
)

// === Default timeouts ===

const (
	// ProbeTimeout bounds `gh --version` and `gh auth status`.
	ProbeTimeout = 5 * time.Second

	// SecretWriteTimeout bounds the secret write itself.
	SecretWriteTimeout = 10 * time.Second

	// APITimeout bounds individual HTTP requests to Cloudflare.
	APITimeout = 30 * time.Second
)

// === Default permissions ===

const (
	// DefaultDirPerms is the default permission mode for created directories.
	DefaultDirPerms = 0755

	// SecretFilePerms is the permission mode for files holding credentials.
	SecretFilePerms = 0600
)

// === Default paths ===

const (
	// EnvFile is the fallback configuration file name.
	EnvFile = ".env"

	// TunnelFile is the generated tunnel configuration file name.
	TunnelFile = "tunnel.json"
)

// ProjectDir returns the project directory.
// Uses OVERLAP_DIR if set, otherwise the working directory.
func ProjectDir() string {
	if d := os.Getenv("OVERLAP_DIR"); d != "" {
		return d
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// EnvFilePath returns the fallback .env path inside dir.
func EnvFilePath(dir string) string {
	return filepath.Join(dir, EnvFile)
}

// TunnelFilePath returns the tunnel.json path inside dir.
func TunnelFilePath(dir string) string {
	return filepath.Join(dir, TunnelFile)
}
