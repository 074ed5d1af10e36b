package cli

import (
	"time"

	"github.com/spf13/cobra"

	"oasis/internal/scrape"
)

// ScrapeCmd returns the scrape command
func ScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Capture a live page's element tree with a headless browser",
		Long: `Open the page in Chrome (launched locally, or a remote DevTools endpoint
with --remote) and read computed styles into an element tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, _ := cmd.Flags().GetString("remote")
			stealth, _ := cmd.Flags().GetBool("stealth")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")

			sess, err := scrape.Open(cmd.Context(), scrape.Config{
				RemoteURL:      remote,
				Stealth:        stealth,
				NavTimeout:     timeout,
				ViewportWidth:  width,
				ViewportHeight: height,
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			els, err := sess.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emitTree(cmd, els)
		},
	}
	cmd.Flags().String("remote", "", "DevTools websocket URL of a running Chrome")
	cmd.Flags().Bool("stealth", false, "apply stealth evasions to the page")
	cmd.Flags().Duration("timeout", 30*time.Second, "navigation timeout")
	cmd.Flags().Int("width", 1440, "viewport width")
	cmd.Flags().Int("height", 900, "viewport height")
	return cmd
}
