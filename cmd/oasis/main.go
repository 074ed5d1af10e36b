package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oasis/internal/cli"
	"oasis/internal/gateway/app"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "oasis",
		Short:   "Oasis - design DNA extraction and component generation",
		Version: app.Version,
		Long: `Oasis turns a styled element tree (scraped, imported from HTML or Figma)
into a design DNA summary, a content-addressable hash and a semantic color
map, and generates React components cached by that hash.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Design DNA
	rootCmd.AddCommand(cli.HashCmd())
	rootCmd.AddCommand(cli.SummaryCmd())
	rootCmd.AddCommand(cli.ColorMapCmd())
	rootCmd.AddCommand(cli.RemapCmd())
	rootCmd.AddCommand(cli.SanitizeCmd())

	// Capture
	rootCmd.AddCommand(cli.ImportCmd())
	rootCmd.AddCommand(cli.ScrapeCmd())

	// Generation
	rootCmd.AddCommand(cli.GenerateCmd())
	rootCmd.AddCommand(cli.MCPCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
