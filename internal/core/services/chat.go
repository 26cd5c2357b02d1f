package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// FailureMessage is the single generic answer surfaced to the end user
// when a turn fails. The underlying error is logged, never shown.
const FailureMessage = "An error occurred while processing your request."

// sourcesPrefix introduces the attribution segment appended to answers.
const sourcesPrefix = "\n\nSources: "

// tokenBufferSize bounds the turn's coordination channel. The channel
// stays strictly FIFO single-producer/single-consumer for one turn.
const tokenBufferSize = 64

// DefaultInternetScore is the fixed relevance score assigned to
// internet-augmentation nodes. Not derived from any similarity metric.
const DefaultInternetScore = 0.2

// ChatService orchestrates one chat turn: retrieval, optional internet
// augmentation, generation and source attribution. Each turn
// constructs its own channel and goroutines, so concurrent turns do
// not interfere; the index and model connection are shared read-only.
type ChatService struct {
	retriever *Retriever
	generator *Generator

	webSearcher   driven.WebSearcher
	internetScore float64
	internet      atomic.Bool
}

// NewChatService creates the turn orchestrator. webSearcher may be nil
// to disable the internet augmentation path entirely.
func NewChatService(retriever *Retriever, generator *Generator, webSearcher driven.WebSearcher, internetScore float64) *ChatService {
	if internetScore <= 0 {
		internetScore = DefaultInternetScore
	}
	return &ChatService{
		retriever:     retriever,
		generator:     generator,
		webSearcher:   webSearcher,
		internetScore: internetScore,
	}
}

// SetInternetSearch toggles web-search augmentation for subsequent turns.
func (s *ChatService) SetInternetSearch(enabled bool) {
	s.internet.Store(enabled)
}

// InternetSearch reports whether augmentation is enabled.
func (s *ChatService) InternetSearch() bool {
	return s.internet.Load()
}

// Ask runs a batch turn. On failure the returned result carries
// FailureMessage as the answer alongside the error.
func (s *ChatService) Ask(ctx context.Context, query string) (*driving.TurnResult, error) {
	nodes, err := s.gatherNodes(ctx, query)
	if err != nil {
		logger.Warn("Turn failed during retrieval: %v", err)
		return &driving.TurnResult{Answer: FailureMessage}, err
	}

	answer, err := s.generator.Generate(ctx, query, nodes)
	if err != nil {
		logger.Warn("Turn failed during generation: %v", err)
		return &driving.TurnResult{Answer: FailureMessage}, err
	}

	sources := sourceLabels(nodes)
	if footer := sourcesFooter(sources); footer != "" {
		answer += footer
	}

	return &driving.TurnResult{Answer: answer, Sources: sources}, nil
}

// AskStream runs a streamed turn, delivering each token to sink in
// producer order and the sources segment as one final chunk. The turn
// joins its producer and consumer before returning, so the sink is
// never left in an unterminated streaming state. On failure the
// returned result carries FailureMessage as the answer alongside the
// error; the failure message is also written to the sink.
func (s *ChatService) AskStream(ctx context.Context, query string, sink driving.TokenSink) (*driving.TurnResult, error) {
	nodes, err := s.gatherNodes(ctx, query)
	if err != nil {
		logger.Warn("Turn failed during retrieval: %v", err)
		return s.failTurn(sink, err)
	}

	tokens := make(chan string, tokenBufferSize)

	var accumulated strings.Builder
	g, gctx := errgroup.WithContext(ctx)

	// Producer: relay every generated token into the turn channel,
	// then close it exactly once.
	g.Go(func() error {
		defer close(tokens)

		stream, errs := s.generator.GenerateStream(gctx, query, nodes)
		for token := range stream {
			select {
			case tokens <- token:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return <-errs
	})

	// Consumer: accumulate and forward until the channel closes.
	g.Go(func() error {
		for token := range tokens {
			accumulated.WriteString(token)
			if err := sink.WriteToken(token); err != nil {
				return fmt.Errorf("writing token to sink: %w", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warn("Turn failed during generation: %v", err)
		return s.failTurn(sink, err)
	}

	sources := sourceLabels(nodes)
	if footer := sourcesFooter(sources); footer != "" {
		accumulated.WriteString(footer)
		if err := sink.WriteToken(footer); err != nil {
			return s.failTurn(sink, fmt.Errorf("writing sources to sink: %w", err))
		}
	}

	return &driving.TurnResult{Answer: accumulated.String(), Sources: sources}, nil
}

// gatherNodes retrieves grounding nodes and, when enabled, appends a
// synthetic internet node. Web search is best-effort and can never
// fail the turn.
func (s *ChatService) gatherNodes(ctx context.Context, query string) ([]domain.ScoredNode, error) {
	nodes, err := s.retriever.Retrieve(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	if s.internet.Load() && s.webSearcher != nil {
		if snippet, ok := s.webSearcher.Search(ctx, query); ok && snippet != "" {
			nodes = append(nodes, domain.ScoredNode{
				Chunk: domain.Chunk{
					ID:       uuid.New().String(),
					Content:  snippet,
					Metadata: map[string]string{domain.MetaSource: domain.SourceInternet},
				},
				Score: s.internetScore,
			})
		}
	}

	return nodes, nil
}

// failTurn delivers the generic failure message through the sink and
// as the turn's answer.
func (s *ChatService) failTurn(sink driving.TokenSink, err error) (*driving.TurnResult, error) {
	if sinkErr := sink.WriteToken(FailureMessage); sinkErr != nil {
		logger.Debug("Writing failure message to sink: %v", sinkErr)
	}
	return &driving.TurnResult{Answer: FailureMessage}, err
}

// sourceLabels returns the unique attribution labels of the nodes,
// sorted lexicographically.
func sourceLabels(nodes []domain.ScoredNode) []string {
	seen := make(map[string]struct{}, len(nodes))
	var labels []string
	for _, node := range nodes {
		label := node.Chunk.SourceLabel()
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// sourcesFooter renders the trailing attribution segment, or "" when
// no node carried metadata.
func sourcesFooter(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return sourcesPrefix + strings.Join(labels, ", ")
}
