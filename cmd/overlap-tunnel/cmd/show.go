package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentivo/overlap/internal/config"
	"github.com/agentivo/overlap/internal/tunnel"
)

var showPath string

// ShowCmd prints the saved tunnel record with the token redacted.
var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved tunnel record (token redacted)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := showPath
		if path == "" {
			path = config.TunnelFilePath(config.ProjectDir())
		}
		return runShow(path, cmd.OutOrStdout())
	},
}

func init() {
	ShowCmd.Flags().StringVar(&showPath, "file", "", "Tunnel record to read (default <project>/tunnel.json)")
}

func runShow(path string, out io.Writer) error {
	r, err := tunnel.LoadRecord(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(r.Redacted(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
