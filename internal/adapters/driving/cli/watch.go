package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index whenever documents change",
	Long: `Watches the document directory and rebuilds the index after changes
settle. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pipeline := newPipeline()
	if err := ensureIndex(ctx, pipeline); err != nil {
		return err
	}

	w := watcher.New(pipeline, cfg.DocsDir, cfg.Debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
