// overlap-tunnel - Cloudflare tunnel setup for the overlap dev server
//
// Creates or reuses a named tunnel, routes its public hostname to a local
// port, and hands the connector token to GitHub Actions.
package main

import (
	"os"

	// Bootstrap MUST be imported first to set the log level before any logging
	_ "github.com/agentivo/overlap/internal/bootstrap"

	"github.com/agentivo/overlap/cmd/overlap-tunnel/cmd"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "overlap-tunnel",
		Short: "Provision the Cloudflare tunnel that exposes the overlap dev server",
		Long: `overlap-tunnel provisions a named Cloudflare tunnel for the overlap dev
server and publishes its connector token as a GitHub Actions secret.

Running it without a command is the same as 'overlap-tunnel setup'.

KEY COMMANDS:
  setup     - Create or reuse the tunnel, route, DNS record and secret
  show      - Print the saved tunnel.json with the token redacted
  validate  - Check the configuration (--deep verifies it via the API)
  version   - Print the version`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         cmd.SetupCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(cmd.SetupCmd.Flags())

	// Pass version to the version command
	cmd.SetVersion(Version)

	rootCmd.AddCommand(cmd.SetupCmd)
	rootCmd.AddCommand(cmd.ShowCmd)
	rootCmd.AddCommand(cmd.ValidateCmd)
	rootCmd.AddCommand(cmd.VersionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
