// Package tunnel provisions a named tunnel, its public route and DNS record,
// and persists the resulting credentials.
//
// The package only orchestrates. Tunnel and DNS operations go through a
// Provider, and the optional secret push goes through a SecretStore, so the
// flow can be exercised against fakes.
//
// # Flow
//
//  1. Look up the tunnel named overlap-<subdomain>; reuse it and fetch a
//     fresh token, or create it
//  2. Route https://<subdomain>.<domain> to http://localhost:<port>
//  3. Ensure a DNS record for the hostname points at the tunnel
//  4. Write tunnel.json
//  5. Push the token to the repository secret store (best effort)
package tunnel

import (
	"context"

	"github.com/agentivo/overlap/internal/config"
)

// Tunnel is a provider-managed tunnel.
type Tunnel struct {
	ID   string
	Name string
}

// Provider is the tunnel and DNS capability set of a tunneling provider.
type Provider interface {
	// FindByName returns the live tunnel with the exact name, or nil.
	FindByName(ctx context.Context, name string) (*Tunnel, error)

	// Create creates a tunnel and returns its ID and connector token.
	Create(ctx context.Context, name string) (id, token string, err error)

	// Token fetches a fresh connector token for an existing tunnel.
	Token(ctx context.Context, tunnelID string) (string, error)

	// CreateRoute binds <subdomain>.<domain> to serviceURL on the tunnel.
	CreateRoute(ctx context.Context, tunnelID, subdomain, domain, serviceURL string) error

	// ZoneID resolves the DNS zone identifier for domain.
	ZoneID(ctx context.Context, domain string) (string, error)

	// EnsureDNSRecord creates or updates the record for <subdomain>.<domain>
	// so it points at the tunnel.
	EnsureDNSRecord(ctx context.Context, zoneID, subdomain, domain, tunnelID string) error
}

// SecretStore stores a named secret for an owner/repo repository.
type SecretStore interface {
	Set(ctx context.Context, name, value, repo string) error
}

// Name returns the tunnel name for subdomain.
func Name(subdomain string) string {
	return config.TunnelNamePrefix + subdomain
}

// Hostname returns the public hostname for subdomain under domain.
func Hostname(subdomain, domain string) string {
	return subdomain + "." + domain
}

// PublicURL returns the public https URL for subdomain under domain.
func PublicURL(subdomain, domain string) string {
	return "https://" + Hostname(subdomain, domain)
}

// ServiceURL returns the local service URL for port.
func ServiceURL(port string) string {
	return "http://localhost:" + port
}
