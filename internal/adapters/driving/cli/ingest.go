package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the index from the document directory",
	Long: `Reads every supported file under the document directory, chunks and
embeds the content and persists the index, replacing any previous one.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	pipeline := newPipeline()

	started := time.Now()
	chunks, err := pipeline.Ingest(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	state := pipeline.State()
	cmd.Printf("Indexed %d chunks from %d documents in %s\n",
		chunks, state.Documents, time.Since(started).Round(time.Millisecond))
	return nil
}
