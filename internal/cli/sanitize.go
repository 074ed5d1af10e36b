package cli

import (
	"github.com/spf13/cobra"

	"oasis/internal/sanitize"
)

// SanitizeCmd returns the sanitize command
func SanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [output-file]",
		Short: "Parse and clean raw generation output",
		Long: `Parse raw model output (JSON, fenced JSON, or fenced jsx/html blocks) into
component code and preview markup, then strip tracking snippets, id
attributes, CMS classes and absolute positioning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			out, err := sanitize.ParseOutput(string(raw))
			if err != nil {
				return err
			}
			code, html := sanitize.Sanitize(out.ComponentCode, out.PreviewHTML)
			return printJSON(cmd, sanitize.Output{ComponentCode: code, PreviewHTML: html})
		},
	}
}
