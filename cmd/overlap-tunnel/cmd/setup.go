package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentivo/overlap/internal/cftunnel"
	"github.com/agentivo/overlap/internal/config"
	"github.com/agentivo/overlap/internal/env"
	"github.com/agentivo/overlap/internal/ghsecret"
	"github.com/agentivo/overlap/internal/tunnel"
)

// setupOptions are the inputs of one setup run. Empty strings mean "not
// given on the command line".
type setupOptions struct {
	Dir           string
	EnvFile       string
	Output        string
	Domain        string
	Subdomain     string
	Port          string
	Repo          string
	SecretBackend string

	// Environ is the process environment as a map.
	Environ map[string]string
}

var setupOpts setupOptions

// newProvider builds the tunnel provider. Replaced in tests.
var newProvider = func(cfg env.Config) (tunnel.Provider, error) {
	client, err := cftunnel.NewClient(cftunnel.Config{
		APIToken:  cfg.APIToken,
		AccountID: cfg.AccountID,
		BaseURL:   os.Getenv(env.KeyCloudflareAPIBaseURL),
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("account", client.AccountID()).Msg("cloudflare client ready")
	return client, nil
}

// newSecretStore builds the secret store for the configured backend. A nil
// store with a nil error means the push is skipped. Replaced in tests.
var newSecretStore = func(cfg env.Config) (tunnel.SecretStore, error) {
	switch cfg.SecretBackend {
	case config.SecretBackendNone:
		return nil, nil
	case config.SecretBackendAPI:
		store, err := ghsecret.NewAPIStore(cfg.GitHubToken, nil)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return ghsecret.NewCLIStore(), nil
	}
}

// SetupCmd provisions the tunnel, route and DNS record, saves tunnel.json and
// pushes the connector token to GitHub.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or reuse the Cloudflare tunnel for this project",
	Long: `Create or reuse a named Cloudflare tunnel, route its hostname to the
local service, point DNS at it, save tunnel.json and store the connector
token as the TUNNEL_TOKEN secret of the GitHub repository.

Credentials come from the environment, or from the project's .env file when
the environment lacks them:
  CLOUDFLARE_API_TOKEN    API token with Tunnel and DNS edit rights
  CLOUDFLARE_ACCOUNT_ID   Account that owns the tunnel

Optional:
  TUNNEL_DOMAIN           Zone (default neevs.io)
  TUNNEL_SUBDOMAIN        Host label (default overlap)
  PORT                    Local service port (default 3000)
  GITHUB_REPO             owner/repo for the secret (default agentivo/overlap)
  TUNNEL_SECRET_BACKEND   gh, api or none (default gh)
  GITHUB_TOKEN            Token for the api backend

Examples:
  overlap-tunnel setup
  overlap-tunnel setup --subdomain demo --port 8080
  overlap-tunnel setup --secret-backend none`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		opts := setupOpts
		opts.Environ = env.Environ()
		return runSetup(ctx, opts, cmd.OutOrStdout())
	},
}

func init() {
	f := SetupCmd.Flags()
	f.StringVar(&setupOpts.Dir, "dir", "", "Project directory (default $OVERLAP_DIR or the current directory)")
	f.StringVar(&setupOpts.EnvFile, "env-file", "", "Fallback credentials file (default <dir>/.env)")
	f.StringVar(&setupOpts.Output, "output", "", "Where to save the tunnel record (default <dir>/tunnel.json)")
	f.StringVar(&setupOpts.Domain, "domain", "", "Zone to publish under")
	f.StringVar(&setupOpts.Subdomain, "subdomain", "", "Host label under the zone")
	f.StringVar(&setupOpts.Port, "port", "", "Local service port")
	f.StringVar(&setupOpts.Repo, "repo", "", "GitHub repository (owner/repo) for the token secret")
	f.StringVar(&setupOpts.SecretBackend, "secret-backend", "", "How to store the token secret: gh, api or none")
}

// resolveSetup turns options into a validated configuration and the file
// paths of the run.
func resolveSetup(opts setupOptions) (cfg env.Config, envFile, output string, err error) {
	dir := opts.Dir
	if dir == "" {
		dir = config.ProjectDir()
	}
	envFile = opts.EnvFile
	if envFile == "" {
		envFile = config.EnvFilePath(dir)
	}
	output = opts.Output
	if output == "" {
		output = config.TunnelFilePath(dir)
	}

	cfg, err = env.Resolve(opts.Environ, envFile)
	if err != nil {
		return cfg, envFile, output, err
	}

	for _, o := range []struct {
		dst *string
		val string
	}{
		{&cfg.Domain, opts.Domain},
		{&cfg.Subdomain, opts.Subdomain},
		{&cfg.Port, opts.Port},
		{&cfg.Repo, opts.Repo},
		{&cfg.SecretBackend, opts.SecretBackend},
	} {
		if o.val != "" {
			*o.dst = o.val
		}
	}

	return cfg, envFile, output, cfg.Validate()
}

func runSetup(ctx context.Context, opts setupOptions, out io.Writer) error {
	cfg, envFile, output, err := resolveSetup(opts)
	if err != nil {
		return err
	}
	if cfg.FromFile {
		log.Debug().Str("path", envFile).Msg("credentials loaded from env file")
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tunnel provider: %w", err)
	}

	p := &tunnel.Provisioner{
		Provider:   provider,
		OutputPath: output,
	}

	store, storeErr := newSecretStore(cfg)
	if storeErr == nil {
		p.Secrets = store
	}

	res, err := p.Run(ctx, cfg)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprintln(out, "Tunnel configured!")
	fmt.Fprintf(out, "URL: %s\n", res.Record.URL)
	fmt.Fprintf(out, "Config saved to: %s\n", res.Path)

	if storeErr != nil {
		res.SecretErr = storeErr
	}

	switch {
	case res.SecretErr != nil:
		yellow.Fprintf(out, "Failed to set %s secret automatically: %v\n", config.SecretName, res.SecretErr)
		fmt.Fprintf(out, "Run manually: %s\n", tunnel.ManualSecretCommand(cfg.Repo))
	case res.SecretPushed:
		green.Fprintf(out, "%s secret set for %s\n", config.SecretName, cfg.Repo)
	default:
		yellow.Fprintf(out, "Skipped %s secret (backend: %s)\n", config.SecretName, cfg.SecretBackend)
		fmt.Fprintf(out, "Run manually: %s\n", tunnel.ManualSecretCommand(cfg.Repo))
	}

	return nil
}
