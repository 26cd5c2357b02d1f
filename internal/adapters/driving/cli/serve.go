package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragchat-cli/internal/watcher"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat pipeline over HTTP",
	Long: `Starts the HTTP API: POST /query for batch answers, GET /stream for
server-sent-event streaming, POST /feedback, POST /reindex and
GET /healthz. With --watch, document changes trigger a rebuild.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild the index when documents change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pipeline := newPipeline()
	if err := ensureIndex(ctx, pipeline); err != nil {
		return err
	}

	llm := connectModel(ctx)
	defer llm.LLM.Close() //nolint:errcheck

	chat, err := newChat(pipeline, llm)
	if err != nil {
		return err
	}

	status := func() httpapi.Status {
		s := httpapi.Status{
			Model:     llm.LLM.ModelName(),
			Streaming: llm.LLM.Streaming(),
			Degraded:  llm.Degraded,
		}
		if state := pipeline.State(); state != nil {
			s.Chunks = state.Index.Len()
		}
		return s
	}

	server := httpapi.NewServer(cfg.ListenAddr, chat, pipeline, newFeedbackStore(), status)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	if serveWatch {
		w := watcher.New(pipeline, cfg.DocsDir, cfg.Debounce)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
