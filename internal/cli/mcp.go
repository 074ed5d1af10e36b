package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"oasis/internal/gateway/app"
	"oasis/internal/mcptools"
)

// MCPCmd returns the mcp command
func MCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the design DNA tools over MCP on stdio",
		Long: `Serve dna_hash, dna_summary, dna_colormap, code_remap and output_sanitize
over MCP on stdin/stdout. With --generate, dna_generate is also served using
the configured store and llm provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tools := &mcptools.Tools{}
			if withGen, _ := cmd.Flags().GetBool("generate"); withGen {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				p, err := app.NewPipeline(ctx, cfg, nil)
				if err != nil {
					return err
				}
				defer p.Close()
				tools.Pipeline = p.Service
				tools.Limits = cfg.Limits
			}
			return tools.NewServer("oasis", app.Version).Run(ctx, &mcp.StdioTransport{})
		},
	}
	cmd.Flags().Bool("generate", false, "also serve dna_generate")
	cmd.Flags().String("config", "", "YAML config file")
	return cmd
}
