package tunnel

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentivo/overlap/internal/env"
)

// fakeProvider records calls and returns canned results.
type fakeProvider struct {
	existing *Tunnel

	createID    string
	createToken string
	token       string

	failOn string

	calls []string
	route struct{ tunnelID, subdomain, domain, serviceURL string }
	dns   struct{ zoneID, subdomain, domain, tunnelID string }
}

func (f *fakeProvider) fail(op string) error {
	f.calls = append(f.calls, op)
	if f.failOn == op {
		return errors.New(op + " exploded")
	}
	return nil
}

func (f *fakeProvider) FindByName(_ context.Context, _ string) (*Tunnel, error) {
	if err := f.fail("find"); err != nil {
		return nil, err
	}
	return f.existing, nil
}

func (f *fakeProvider) Create(_ context.Context, _ string) (string, string, error) {
	if err := f.fail("create"); err != nil {
		return "", "", err
	}
	return f.createID, f.createToken, nil
}

func (f *fakeProvider) Token(_ context.Context, _ string) (string, error) {
	if err := f.fail("token"); err != nil {
		return "", err
	}
	return f.token, nil
}

func (f *fakeProvider) CreateRoute(_ context.Context, tunnelID, subdomain, domain, serviceURL string) error {
	f.route.tunnelID, f.route.subdomain, f.route.domain, f.route.serviceURL = tunnelID, subdomain, domain, serviceURL
	return f.fail("route")
}

func (f *fakeProvider) ZoneID(_ context.Context, _ string) (string, error) {
	if err := f.fail("zone"); err != nil {
		return "", err
	}
	return "zone-1", nil
}

func (f *fakeProvider) EnsureDNSRecord(_ context.Context, zoneID, subdomain, domain, tunnelID string) error {
	f.dns.zoneID, f.dns.subdomain, f.dns.domain, f.dns.tunnelID = zoneID, subdomain, domain, tunnelID
	return f.fail("dns")
}

func (f *fakeProvider) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

type fakeSecrets struct {
	err               error
	name, value, repo string
	calls             int
}

func (f *fakeSecrets) Set(_ context.Context, name, value, repo string) error {
	f.calls++
	f.name, f.value, f.repo = name, value, repo
	return f.err
}

func testConfig() env.Config {
	return env.Config{
		APIToken:  "abc",
		AccountID: "def123",
		Domain:    "example.com",
		Subdomain: "demo",
		Port:      "4000",
		Repo:      "octo/demo",
	}
}

func TestName(t *testing.T) {
	for _, s := range []string{"overlap", "demo", "a-b", ""} {
		assert.Equal(t, "overlap-"+s, Name(s))
	}
}

func TestRunCreatesTunnel(t *testing.T) {
	provider := &fakeProvider{createID: "t-new", createToken: "tok-new"}
	secrets := &fakeSecrets{}
	path := filepath.Join(t.TempDir(), "tunnel.json")

	p := &Provisioner{Provider: provider, Secrets: secrets, OutputPath: path}
	res, err := p.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.count("create"))
	assert.Equal(t, 0, provider.count("token"))
	assert.False(t, res.Reused)

	saved, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, Record{
		TunnelID:    "t-new",
		TunnelName:  "overlap-demo",
		TunnelToken: "tok-new",
		Subdomain:   "demo",
		Domain:      "example.com",
		URL:         "https://demo.example.com",
		ServiceURL:  "http://localhost:4000",
	}, saved)

	assert.Equal(t, "t-new", provider.route.tunnelID)
	assert.Equal(t, "http://localhost:4000", provider.route.serviceURL)
	assert.Equal(t, "zone-1", provider.dns.zoneID)
	assert.Equal(t, "t-new", provider.dns.tunnelID)

	assert.True(t, res.SecretPushed)
	assert.Equal(t, "TUNNEL_TOKEN", secrets.name)
	assert.Equal(t, "tok-new", secrets.value)
	assert.Equal(t, "octo/demo", secrets.repo)
}

func TestRunReusesExistingTunnel(t *testing.T) {
	provider := &fakeProvider{
		existing: &Tunnel{ID: "t-old", Name: "overlap-demo"},
		token:    "tok-fresh",
	}
	path := filepath.Join(t.TempDir(), "tunnel.json")

	p := &Provisioner{Provider: provider, OutputPath: path}
	res, err := p.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.True(t, res.Reused)
	assert.Equal(t, 0, provider.count("create"))
	assert.Equal(t, 1, provider.count("token"))
	assert.Equal(t, "t-old", res.Record.TunnelID)
	assert.Equal(t, "tok-fresh", res.Record.TunnelToken)
	assert.False(t, res.SecretPushed)
	assert.NoError(t, res.SecretErr)
}

func TestRunSecretFailureIsNotFatal(t *testing.T) {
	provider := &fakeProvider{createID: "t1", createToken: "tok"}
	secrets := &fakeSecrets{err: errors.New("gh: command not found")}
	path := filepath.Join(t.TempDir(), "tunnel.json")

	// The caller reports the failure; the provisioner only logs it at debug.
	var logs bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&logs).Level(zerolog.InfoLevel)
	t.Cleanup(func() { log.Logger = orig })

	p := &Provisioner{Provider: provider, Secrets: secrets, OutputPath: path}
	res, err := p.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, secrets.calls)
	assert.False(t, res.SecretPushed)
	assert.EqualError(t, res.SecretErr, "gh: command not found")
	assert.FileExists(t, path)
	assert.NotContains(t, logs.String(), "secret push failed")
	assert.NotContains(t, logs.String(), `"level":"warn"`)
}

func TestRunProviderFailures(t *testing.T) {
	for _, op := range []string{"find", "create", "route", "zone", "dns"} {
		t.Run(op, func(t *testing.T) {
			provider := &fakeProvider{createID: "t1", createToken: "tok", failOn: op}
			secrets := &fakeSecrets{}
			path := filepath.Join(t.TempDir(), "tunnel.json")

			p := &Provisioner{Provider: provider, Secrets: secrets, OutputPath: path}
			_, err := p.Run(context.Background(), testConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), op+" exploded")

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "no file may be written on failure")
			assert.Equal(t, 0, secrets.calls)
		})
	}
}

func TestRunTokenFailure(t *testing.T) {
	provider := &fakeProvider{existing: &Tunnel{ID: "t-old"}, failOn: "token"}
	p := &Provisioner{Provider: provider, OutputPath: filepath.Join(t.TempDir(), "tunnel.json")}

	_, err := p.Run(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "t-old")
}

func TestRunRequiresProvider(t *testing.T) {
	_, err := (&Provisioner{OutputPath: "x"}).Run(context.Background(), testConfig())
	assert.Error(t, err)
}

func TestManualSecretCommand(t *testing.T) {
	assert.Equal(t, "gh secret set TUNNEL_TOKEN --repo octo/demo", ManualSecretCommand("octo/demo"))
}
