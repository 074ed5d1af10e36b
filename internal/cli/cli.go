// Package cli holds the oasis subcommands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"oasis/internal/dna"
	"oasis/internal/gateway/config"
	"oasis/internal/util/jsonutil"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
)

// readInput reads path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func readTree(cmd *cobra.Command, path string) ([]dna.Element, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	els, err := dna.DecodeTree(data)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("element tree is empty")
	}
	return els, nil
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// status writes a colored progress line to stderr so stdout stays JSON.
func status(cmd *cobra.Command, mark, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// loadConfig reads the environment and an optional --config YAML file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromEnv("")
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = strings.TrimSpace(os.Getenv("OASIS_CONFIG"))
	}
	if path != "" {
		if err := cfg.OverlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
