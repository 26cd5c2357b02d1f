package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Response synthesis modes.
const (
	// ResponseModeCompact stuffs all node contents into one prompt.
	ResponseModeCompact = "compact"

	// ResponseModeRefine answers from the first node and refines the
	// answer with one model call per remaining node.
	ResponseModeRefine = "refine"
)

const qaPromptTemplate = `Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %s
Answer: `

const refinePromptTemplate = `The original query is as follows: %s
We have provided an existing answer: %s
We have the opportunity to refine the existing answer with some more context below.
---------------------
%s
---------------------
Given the new context, refine the original answer to better answer the query. If the context isn't useful, return the original answer.
Refined Answer: `

// GeneratorOptions configures answer synthesis.
type GeneratorOptions struct {
	// ThinkingSteps > 1 prepends a multi-step reasoning instruction.
	ThinkingSteps int

	// ResponseMode selects the synthesis strategy.
	ResponseMode string

	// Temperature is passed through to the model.
	Temperature float64

	// MaxTokens bounds the generated answer length.
	MaxTokens int
}

// Generator synthesizes answers from retrieved nodes using the model
// connection. It supports batch and streaming generation; the
// streaming path always uses compact synthesis since a refine pass
// cannot stream its intermediate answers.
type Generator struct {
	llm  driven.LLMService
	opts GeneratorOptions
}

// NewGenerator creates a generator over the given model connection.
func NewGenerator(llm driven.LLMService, opts GeneratorOptions) *Generator {
	if opts.ResponseMode == "" {
		opts.ResponseMode = ResponseModeCompact
	}
	return &Generator{llm: llm, opts: opts}
}

// Streaming reports whether the underlying model produces real
// incremental tokens.
func (g *Generator) Streaming() bool {
	return g.llm.Streaming()
}

// Generate synthesizes a single answer string from the query and the
// node contents.
func (g *Generator) Generate(ctx context.Context, query string, nodes []domain.ScoredNode) (string, error) {
	query = g.applyThinkingSteps(query)

	if g.opts.ResponseMode == ResponseModeRefine && len(nodes) > 1 {
		return g.generateRefine(ctx, query, nodes)
	}

	return g.llm.Generate(ctx, g.compactPrompt(query, nodes), g.generateOptions())
}

// GenerateStream synthesizes an answer as a token stream. The token
// channel is closed exactly once when the stream ends; a terminal
// error, if any, arrives on the error channel after the close. When
// the model cannot stream, the whole answer is produced first and
// delivered as a single token.
func (g *Generator) GenerateStream(ctx context.Context, query string, nodes []domain.ScoredNode) (<-chan string, <-chan error) {
	query = g.applyThinkingSteps(query)
	prompt := g.compactPrompt(query, nodes)

	if g.llm.Streaming() {
		return g.llm.GenerateStream(ctx, prompt, g.generateOptions())
	}

	tokens := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		answer, err := g.llm.Generate(ctx, prompt, g.generateOptions())
		if err != nil {
			close(tokens)
			errs <- err
			return
		}
		select {
		case tokens <- answer:
		case <-ctx.Done():
			close(tokens)
			errs <- ctx.Err()
			return
		}
		close(tokens)
	}()
	return tokens, errs
}

// generateRefine runs one model call per node, refining the answer of
// the previous pass with the next node's content.
func (g *Generator) generateRefine(ctx context.Context, query string, nodes []domain.ScoredNode) (string, error) {
	answer, err := g.llm.Generate(ctx, g.compactPrompt(query, nodes[:1]), g.generateOptions())
	if err != nil {
		return "", err
	}

	for _, node := range nodes[1:] {
		prompt := fmt.Sprintf(refinePromptTemplate, query, answer, node.Chunk.Content)
		answer, err = g.llm.Generate(ctx, prompt, g.generateOptions())
		if err != nil {
			return "", err
		}
	}
	return answer, nil
}

// compactPrompt builds a single grounding prompt from all node contents.
func (g *Generator) compactPrompt(query string, nodes []domain.ScoredNode) string {
	if len(nodes) == 0 {
		return query
	}

	contents := make([]string, 0, len(nodes))
	for _, node := range nodes {
		contents = append(contents, node.Chunk.Content)
	}
	return fmt.Sprintf(qaPromptTemplate, strings.Join(contents, "\n\n"), query)
}

func (g *Generator) applyThinkingSteps(query string) string {
	if g.opts.ThinkingSteps > 1 {
		return fmt.Sprintf("Think in %d steps and answer.\n%s", g.opts.ThinkingSteps, query)
	}
	return query
}

func (g *Generator) generateOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}
}
