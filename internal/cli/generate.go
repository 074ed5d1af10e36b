package cli

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"oasis/internal/gateway/app"
	"oasis/internal/pipeline"
)

// GenerateCmd returns the generate command
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [tree.json]",
		Short: "Generate (or fetch from cache) a component for an element tree",
		Long: `Run the generation pipeline with the configured store and llm provider
(see OASIS_STORE, LLM_PROVIDER or --config). Prints the artifact as JSON;
--code prints only the component code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			els, err := readTree(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := app.NewPipeline(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			force, _ := cmd.Flags().GetBool("force")
			dnaID, _ := cmd.Flags().GetString("dna-id")
			res, err := p.Service.Generate(ctx, pipeline.Request{
				Elements:  els,
				DNAID:     dnaID,
				CreatedBy: currentUser(),
				Force:     force,
			}, func(ev pipeline.Event) {
				switch ev.Stage {
				case pipeline.StageCacheHit, pipeline.StageStored:
					status(cmd, okMark, "%s %s", ev.Stage, ev.ArtifactID)
				case pipeline.StageError:
					status(cmd, warnMark, "%s", ev.Error)
				default:
					status(cmd, "·", "%s %s", ev.Stage, ev.Hash)
				}
			})
			if err != nil {
				return err
			}
			if codeOnly, _ := cmd.Flags().GetBool("code"); codeOnly {
				_, err = fmt.Fprint(cmd.OutOrStdout(), res.Artifact.ComponentCode)
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().Bool("force", false, "skip the cache lookup and always generate")
	cmd.Flags().String("dna-id", "", "source design id recorded on the artifact")
	cmd.Flags().Bool("code", false, "print only the component code")
	cmd.Flags().String("config", "", "YAML config file")
	return cmd
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
