package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/core/services"
)

var (
	evalURL    string
	evalTests  string
	evalOutput string
)

// evalCase is one test in the input file.
type evalCase struct {
	Prompt   string `json:"prompt"`
	Expected string `json:"expected"`
}

// evalResult is one scored case in the output file.
type evalResult struct {
	Prompt   string  `json:"prompt"`
	Expected string  `json:"expected"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score pipeline answers against an expected-answer corpus",
	Long: `Sends every prompt in the tests file to a running ragchat server,
scores each answer against the expected answer with a string-similarity
ratio and writes the scored results as JSON.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalURL, "url", "http://localhost:8000/query", "pipeline query URL")
	evalCmd.Flags().StringVar(&evalTests, "tests", "tests.json", "path to the test corpus")
	evalCmd.Flags().StringVar(&evalOutput, "output", "results.json", "path to write scored results")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(evalTests)
	if err != nil {
		return fmt.Errorf("reading tests: %w", err)
	}

	var cases []evalCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return fmt.Errorf("parsing tests: %w", err)
	}

	evaluator := services.NewEvaluator()
	client := &http.Client{Timeout: 30 * time.Second}

	results := make([]evalResult, 0, len(cases))
	var total float64
	for _, c := range cases {
		answer, err := queryPipeline(cmd.Context(), client, c.Prompt)
		if err != nil {
			return fmt.Errorf("querying pipeline for %q: %w", c.Prompt, err)
		}

		score := evaluator.Evaluate(answer, c.Expected)
		total += score
		results = append(results, evalResult{
			Prompt:   c.Prompt,
			Expected: c.Expected,
			Answer:   answer,
			Score:    score,
		})
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	if err := os.WriteFile(evalOutput, out, 0600); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if len(results) > 0 {
		cmd.Printf("Scored %d cases, average %.3f\n", len(results), total/float64(len(results)))
	} else {
		cmd.Println("No cases to score.")
	}
	return nil
}

// queryPipeline sends one prompt to the running server and returns the
// answer.
func queryPipeline(ctx context.Context, client *http.Client, prompt string) (string, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, evalURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Answer, nil
}
