package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

var feedbackQuery string

var feedbackCmd = &cobra.Command{
	Use:   "feedback [detail]",
	Short: "Record feedback about an answer",
	Long: `Appends a feedback entry to the feedback log. Use --query to record
which question the feedback refers to.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackQuery, "query", "", "the question the feedback refers to")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	store := newFeedbackStore()

	if err := store.Append(driven.FeedbackRecord{
		Timestamp: time.Now().UTC(),
		Query:     feedbackQuery,
		Detail:    args[0],
	}); err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}

	cmd.Println("Feedback recorded.")
	return nil
}
