// Package cftunnel implements tunnel.Provider on the Cloudflare API.
//
// Tunnel, route, zone and DNS operations go through cloudflare-go. The
// connector token is fetched with a direct request because the token
// endpoint has answered both with a bare string and with an object holding
// a token field.
package cftunnel

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	cloudflare "github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog/log"

	"github.com/agentivo/overlap/internal/config"
	"github.com/agentivo/overlap/internal/tunnel"
)

// DefaultBaseURL is the Cloudflare v4 API root.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// tunnelTargetSuffix is the CNAME target domain for tunnel hostnames.
const tunnelTargetSuffix = ".cfargotunnel.com"

// catchAllService answers requests that match no ingress hostname.
const catchAllService = "http_status:404"

var (
	// ErrRecordConflict is returned when the hostname already has a
	// non-CNAME DNS record.
	ErrRecordConflict = errors.New("conflicting DNS record")

	// ErrEmptyToken is returned when the token endpoint yields no token.
	ErrEmptyToken = errors.New("empty tunnel token")
)

// Config holds configuration for the Cloudflare client
type Config struct {
	APIToken  string
	AccountID string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the default client with config.APITimeout.
	HTTPClient *http.Client
}

// Client talks to the Cloudflare API for one account.
type Client struct {
	api       *cloudflare.API
	http      *http.Client
	baseURL   string
	apiToken  string
	accountID string
}

var _ tunnel.Provider = (*Client)(nil)

// NewClient creates a new Cloudflare client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API token is required")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.APITimeout}
	}

	api, err := cloudflare.NewWithAPIToken(cfg.APIToken,
		cloudflare.BaseURL(baseURL),
		cloudflare.HTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}

	return &Client{
		api:       api,
		http:      httpClient,
		baseURL:   baseURL,
		apiToken:  cfg.APIToken,
		accountID: cfg.AccountID,
	}, nil
}

// AccountID returns the configured account ID
func (c *Client) AccountID() string {
	return c.accountID
}

// VerifyToken checks the API token is known and active.
func (c *Client) VerifyToken(ctx context.Context) error {
	res, err := c.api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify API token: %w", err)
	}
	if res.Status != "active" {
		return fmt.Errorf("API token status is %q", res.Status)
	}
	return nil
}

// VerifyAccount checks the token can read the configured account.
func (c *Client) VerifyAccount(ctx context.Context) error {
	if _, _, err := c.api.Account(ctx, c.accountID); err != nil {
		return fmt.Errorf("failed to read account %s: %w", c.accountID, err)
	}
	return nil
}

func (c *Client) account() *cloudflare.ResourceContainer {
	return cloudflare.AccountIdentifier(c.accountID)
}

// FindByName returns the non-deleted tunnel named name, or nil.
func (c *Client) FindByName(ctx context.Context, name string) (*tunnel.Tunnel, error) {
	tunnels, _, err := c.api.ListTunnels(ctx, c.account(), cloudflare.TunnelListParams{
		Name:       name,
		IsDeleted:  cloudflare.BoolPtr(false),
		ResultInfo: cloudflare.ResultInfo{Page: 1, PerPage: 50},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tunnels: %w", err)
	}

	for _, t := range tunnels {
		if t.Name == name {
			log.Debug().Str("id", t.ID).Str("name", t.Name).Msg("found tunnel")
			return &tunnel.Tunnel{ID: t.ID, Name: t.Name}, nil
		}
	}
	return nil, nil
}

// Create creates a remotely managed tunnel and fetches its connector token.
func (c *Client) Create(ctx context.Context, name string) (string, string, error) {
	secret, err := newTunnelSecret()
	if err != nil {
		return "", "", err
	}

	t, err := c.api.CreateTunnel(ctx, c.account(), cloudflare.TunnelCreateParams{
		Name:      name,
		Secret:    secret,
		ConfigSrc: "cloudflare",
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create tunnel: %w", err)
	}

	token, err := c.Token(ctx, t.ID)
	if err != nil {
		return "", "", err
	}
	return t.ID, token, nil
}

// CreateRoute sets the tunnel ingress to send <subdomain>.<domain> to
// serviceURL, with a 404 catch-all.
func (c *Client) CreateRoute(ctx context.Context, tunnelID, subdomain, domain, serviceURL string) error {
	hostname := tunnel.Hostname(subdomain, domain)

	_, err := c.api.UpdateTunnelConfiguration(ctx, c.account(), cloudflare.TunnelConfigurationParams{
		TunnelID: tunnelID,
		Config: cloudflare.TunnelConfiguration{
			Ingress: []cloudflare.UnvalidatedIngressRule{
				{Hostname: hostname, Service: serviceURL},
				{Service: catchAllService},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update tunnel configuration: %w", err)
	}

	log.Debug().Str("hostname", hostname).Str("service", serviceURL).Msg("route configured")
	return nil
}

// ZoneID resolves the zone ID for domain.
func (c *Client) ZoneID(_ context.Context, domain string) (string, error) {
	id, err := c.api.ZoneIDByName(domain)
	if err != nil {
		return "", fmt.Errorf("failed to find zone %s: %w", domain, err)
	}
	return id, nil
}

// EnsureDNSRecord makes <subdomain>.<domain> a proxied CNAME to the tunnel.
// A matching record is left alone, a differing CNAME is updated, and a
// record of another type is reported as ErrRecordConflict.
func (c *Client) EnsureDNSRecord(ctx context.Context, zoneID, subdomain, domain, tunnelID string) error {
	zone := cloudflare.ZoneIdentifier(zoneID)
	hostname := tunnel.Hostname(subdomain, domain)
	target := tunnelID + tunnelTargetSuffix

	records, _, err := c.api.ListDNSRecords(ctx, zone, cloudflare.ListDNSRecordsParams{
		Name:       hostname,
		ResultInfo: cloudflare.ResultInfo{Page: 1, PerPage: 100},
	})
	if err != nil {
		return fmt.Errorf("failed to list DNS records: %w", err)
	}

	for _, r := range records {
		if r.Name != hostname {
			continue
		}
		if r.Type != "CNAME" {
			return fmt.Errorf("%w: %s already has a %s record", ErrRecordConflict, hostname, r.Type)
		}
		if r.Content == target && r.Proxied != nil && *r.Proxied {
			log.Debug().Str("hostname", hostname).Msg("DNS record up to date")
			return nil
		}

		_, err := c.api.UpdateDNSRecord(ctx, zone, cloudflare.UpdateDNSRecordParams{
			ID:      r.ID,
			Type:    "CNAME",
			Name:    hostname,
			Content: target,
			TTL:     1,
			Proxied: cloudflare.BoolPtr(true),
		})
		if err != nil {
			return fmt.Errorf("failed to update DNS record %s: %w", hostname, err)
		}
		log.Debug().Str("hostname", hostname).Str("target", target).Msg("DNS record updated")
		return nil
	}

	_, err = c.api.CreateDNSRecord(ctx, zone, cloudflare.CreateDNSRecordParams{
		Type:    "CNAME",
		Name:    hostname,
		Content: target,
		TTL:     1,
		Proxied: cloudflare.BoolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create DNS record %s: %w", hostname, err)
	}
	log.Debug().Str("hostname", hostname).Str("target", target).Msg("DNS record created")
	return nil
}

// Token fetches the connector token for tunnelID.
func (c *Client) Token(ctx context.Context, tunnelID string) (string, error) {
	path := fmt.Sprintf("/accounts/%s/cfd_tunnel/%s/token", c.accountID, tunnelID)

	result, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tunnel token: %w", err)
	}
	return decodeToken(result)
}

// apiResponse is the common Cloudflare v4 envelope.
type apiResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

// request performs an authenticated call and returns the envelope result.
func (c *Client) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response (status: %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		if len(envelope.Errors) > 0 {
			return nil, fmt.Errorf("%s (code %d)", envelope.Errors[0].Message, envelope.Errors[0].Code)
		}
		return nil, fmt.Errorf("request failed (status: %d)", resp.StatusCode)
	}

	return envelope.Result, nil
}

// decodeToken accepts "result": "<token>" and "result": {"token": "<token>"}.
func decodeToken(result json.RawMessage) (string, error) {
	var token string
	if err := json.Unmarshal(result, &token); err == nil {
		if token == "" {
			return "", ErrEmptyToken
		}
		return token, nil
	}

	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(result, &obj); err != nil {
		return "", fmt.Errorf("unexpected token result: %w", err)
	}
	if obj.Token == "" {
		return "", ErrEmptyToken
	}
	return obj.Token, nil
}

func newTunnelSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate tunnel secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
