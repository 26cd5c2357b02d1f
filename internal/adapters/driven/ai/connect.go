// Package ai provides the model connection bring-up: construct an
// adapter for the configured server, probe liveness, optionally
// auto-start the server, and degrade to the deterministic mock handle
// when nothing is reachable.
package ai

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/llm/mock"
	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/ragchat-cli/internal/config"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for the liveness probe.
const pingTimeout = 5 * time.Second

// pollInterval is the delay between liveness retries while waiting for
// an auto-started server.
const pollInterval = time.Second

// serverCommand launches the local model server. Overridable in tests.
var serverCommand = func() *exec.Cmd {
	return exec.Command("ollama", "serve")
}

// ConnectResult describes the outcome of connection bring-up.
type ConnectResult struct {
	// LLM is the ready-to-use generation handle, real or mock.
	LLM driven.LLMService

	// Degraded is true when LLM is the mock fallback. The caller
	// should emit a one-time operator notice.
	Degraded bool

	// Notice is the operator guidance message when Degraded.
	Notice string
}

// Connect produces a ready-to-use generation handle from the
// configuration. Model-server unreachability is never an error: it is
// absorbed into the mock fallback so the pipeline keeps answering with
// bounded placeholder text.
func Connect(ctx context.Context, cfg config.Config) *ConnectResult {
	svc := newOllama(cfg)

	if err := probe(ctx, svc); err == nil {
		logger.Info("Connected to model server at %s (model %s)", cfg.BaseURL, cfg.Model)
		return &ConnectResult{LLM: svc}
	} else if !cfg.AutoStart {
		logger.Warn("Model server at %s unreachable: %v; falling back to mock", cfg.BaseURL, err)
		return degraded(cfg)
	}

	logger.Info("Model server at %s unreachable, attempting to start it", cfg.BaseURL)
	if err := startServer(); err != nil {
		logger.Warn("Unable to start model server: %v; falling back to mock", err)
		return degraded(cfg)
	}

	deadline := time.Now().Add(cfg.StartupTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			logger.Warn("Connection bring-up cancelled; falling back to mock")
			return degraded(cfg)
		case <-time.After(pollInterval):
		}

		svc = newOllama(cfg)
		if err := probe(ctx, svc); err == nil {
			logger.Info("Model server started and reachable at %s", cfg.BaseURL)
			return &ConnectResult{LLM: svc}
		}
	}

	logger.Warn("Model server did not start within %s; falling back to mock", cfg.StartupTimeout)
	return degraded(cfg)
}

func newOllama(cfg config.Config) *ollama.LLMService {
	return ollama.New(ollama.Config{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.RequestTimeout,
		KeepAlive:   cfg.KeepAlive,
		NumCtx:      cfg.NumCtx,
		NumBatch:    cfg.NumBatch,
		NumPredict:  cfg.NumPredict,
		Temperature: cfg.Temperature,
	})
}

// probe validates connectivity with the model-list call.
func probe(ctx context.Context, svc driven.LLMService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	_, err := svc.ListModels(ctx)
	return err
}

// startServer spawns the local model server detached from this process.
func startServer() error {
	cmd := serverCommand()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// Reap the child when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func degraded(cfg config.Config) *ConnectResult {
	notice := fmt.Sprintf(
		"Model server at %s is not reachable. Using the mock model with limited answers. "+
			"Start it with `ollama serve` and pull the model with `ollama pull %s` for real answers.",
		cfg.BaseURL, cfg.Model)
	return &ConnectResult{
		LLM:      mock.New(),
		Degraded: true,
		Notice:   notice,
	}
}
