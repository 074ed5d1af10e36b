package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"oasis/internal/colormap"
	"oasis/internal/dna"
)

// HashCmd returns the hash command
func HashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [tree.json]",
		Short: "Print the design DNA hash of an element tree",
		Long: `Print the content-addressable hash of an element tree's normalized
style summary. Reads stdin when no file (or "-") is given. The tree may be
a bare array or an object with an "elements" field.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			els, err := readTree(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dna.Hash(els))
			return err
		},
	}
}

// SummaryCmd returns the summary command
func SummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [tree.json]",
		Short: "Print the style summary, visual keys and structural hierarchy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			els, err := readTree(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			summary := dna.Summarize(els)
			if normalized, _ := cmd.Flags().GetBool("normalized"); normalized {
				return printJSON(cmd, dna.Normalize(summary))
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().Bool("normalized", false, "print the normalized form that is hashed")
	return cmd
}

// ColorMapCmd returns the colormap command
func ColorMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colormap [tree.json]",
		Short: "Assign semantic color roles to the tree's colors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			els, err := readTree(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			return printJSON(cmd, colormap.Extract(els))
		},
	}
}
