package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents interactively",
	Long: `Opens the interactive chat UI. Answers stream token by token and
cite the source files they were grounded on. Toggle internet-search
augmentation with ctrl+t.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	model := tui.NewModel(ctx, chat, tui.Options{
		ModelName: llm.LLM.ModelName(),
		Notice:    llm.Notice,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat ui: %w", err)
	}
	return nil
}
