package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"oasis/internal/dna"
	"oasis/internal/dnaimport"
)

// ImportCmd returns the import command with html and figma subcommands.
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert HTML or Figma JSON into an element tree",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "html [file.html]",
		Short: "Convert an HTML document with inline styles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			els, err := dnaimport.FromHTML(bytes.NewReader(data))
			if err != nil {
				return err
			}
			return emitTree(cmd, els)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "figma [nodes.json]",
		Short: "Convert Figma file or node JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			els, err := dnaimport.DecodeFigma(bytes.NewReader(data))
			if err != nil {
				return err
			}
			return emitTree(cmd, els)
		},
	})
	return cmd
}

func emitTree(cmd *cobra.Command, els []dna.Element) error {
	if len(els) == 0 {
		status(cmd, warnMark, "no elements found")
	} else {
		status(cmd, okMark, "%d elements", dna.Count(els))
	}
	return printJSON(cmd, map[string]any{"elements": els})
}
