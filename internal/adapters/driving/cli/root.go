// Package cli provides the ragchat command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/embedding/hashing"
	feedbackfile "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/feedback/file"
	indexsqlite "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/websearch/duckduckgo"
	"github.com/custodia-labs/ragchat-cli/internal/config"
	"github.com/custodia-labs/ragchat-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/ragchat-cli/internal/core/services"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
	"github.com/custodia-labs/ragchat-cli/internal/normalisers"
	"github.com/custodia-labs/ragchat-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/ragchat-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragchat-cli/internal/postprocessors"
	"github.com/custodia-labs/ragchat-cli/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents using local retrieval-augmented generation",
	Long: `ragchat indexes a directory of documents into a local vector store
and answers questions about them with a local language model, streaming
tokens as they are generated and citing the source files it used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A missing .env is fine; explicit files are checked by Load.
		_ = godotenv.Load()

		logger.SetVerbose(verbose)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version shown by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// newPipeline wires the ingestion pipeline from the configuration.
func newPipeline() *services.Pipeline {
	registry := normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
	)
	processors := postprocessors.NewPipeline(
		chunker.New(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithOverlapRatio(cfg.ChunkOverlapRatio),
		),
	)

	return services.NewPipeline(
		filesystem.New(),
		registry,
		processors,
		hashing.New(cfg.EmbedDim),
		indexsqlite.NewStore(),
		cfg.DocsDir,
		cfg.IndexDir,
	)
}

// newChat wires a chat service over an index-bearing pipeline and a
// ready model connection.
func newChat(pipeline *services.Pipeline, llm *ai.ConnectResult) (*services.ChatService, error) {
	retriever, err := services.NewRetriever(pipeline, hashing.New(cfg.EmbedDim), cfg.TopK, cfg.FetchK)
	if err != nil {
		return nil, err
	}

	generator := services.NewGenerator(llm.LLM, services.GeneratorOptions{
		ThinkingSteps: cfg.ThinkingSteps,
		ResponseMode:  cfg.ResponseMode,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.NumPredict,
	})

	return services.NewChatService(retriever, generator, duckduckgo.New(), cfg.InternetScore), nil
}

// connectModel brings up the model connection and logs the operator
// notice when answers will be degraded.
func connectModel(ctx context.Context) *ai.ConnectResult {
	result := ai.Connect(ctx, cfg)
	if result.Degraded {
		logger.Warn("%s", result.Notice)
	}
	return result
}

// newFeedbackStore wires the feedback log.
func newFeedbackStore() *feedbackfile.Store {
	return feedbackfile.NewStore(cfg.FeedbackPath)
}

// ensureIndex loads the persisted index or builds one on cold start.
func ensureIndex(ctx context.Context, pipeline *services.Pipeline) error {
	built, err := pipeline.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	if built > 0 {
		logger.Info("Built index with %d chunks", built)
	}
	return nil
}
