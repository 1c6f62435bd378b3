package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentivo/overlap/internal/cftunnel"
	"github.com/agentivo/overlap/internal/config"
	"github.com/agentivo/overlap/internal/env"
)

var (
	validateDeep    bool
	validateDir     string
	validateEnvFile string
)

// newVerifier builds the credential verifier for deep validation. Replaced in tests.
var newVerifier = func(cfg env.Config) (env.Verifier, error) {
	client, err := cftunnel.NewClient(cftunnel.Config{
		APIToken:  cfg.APIToken,
		AccountID: cfg.AccountID,
		BaseURL:   os.Getenv(env.KeyCloudflareAPIBaseURL),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ValidateCmd checks the resolved configuration.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tunnel configuration",
	Long: `Check the configuration setup would use.

Without --deep only formats are checked. With --deep the API token, account
and zone are verified against the Cloudflare API.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := env.ValidationModeFast
		if validateDeep {
			mode = env.ValidationModeDeep
		}
		dir := validateDir
		if dir == "" {
			dir = config.ProjectDir()
		}
		envFile := validateEnvFile
		if envFile == "" {
			envFile = config.EnvFilePath(dir)
		}
		return runValidate(cmd.Context(), mode, env.Environ(), envFile, cmd.OutOrStdout())
	},
}

func init() {
	ValidateCmd.Flags().BoolVar(&validateDeep, "deep", false, "Verify credentials with API calls")
	ValidateCmd.Flags().StringVar(&validateDir, "dir", "", "Project directory (default $OVERLAP_DIR or the current directory)")
	ValidateCmd.Flags().StringVar(&validateEnvFile, "env-file", "", "Fallback credentials file (default <dir>/.env)")
}

// errValidationFailed is returned when any field fails validation.
var errValidationFailed = errors.New("validation failed")

func runValidate(ctx context.Context, mode env.ValidationMode, environ map[string]string, envFile string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := env.Resolve(environ, envFile)
	if err != nil && !errors.Is(err, env.ErrMissingCredentials) {
		return err
	}

	results := env.ValidateFast(cfg)
	if mode == env.ValidationModeDeep && cfg.HasCredentials() {
		v, err := newVerifier(cfg)
		if err != nil {
			return fmt.Errorf("failed to create verifier: %w", err)
		}
		results = env.ValidateDeep(ctx, cfg, v)
	}

	if env.PrintValidation(out, mode, results) != 0 {
		return errValidationFailed
	}
	return nil
}
