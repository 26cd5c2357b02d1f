// Package config loads the pipeline configuration from an optional TOML
// file with environment-variable overrides. The environment wins so
// behaviour can be tuned without editing files, matching the original
// env-driven deployment style.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// Default configuration values.
const (
	DefaultChunkSize         = 800
	DefaultChunkOverlapRatio = 0.1
	DefaultContextWindow     = 4096
	DefaultNumOutput         = 512
	DefaultBaseURL           = "http://localhost:11434"
	DefaultModel             = "llama3.1:latest"
	DefaultTemperature       = 0.1
	DefaultRequestTimeout    = 120 * time.Second
	DefaultKeepAlive         = 5 * time.Minute
	DefaultNumCtx            = 2048
	DefaultNumBatch          = 16
	DefaultNumPredict        = 512
	DefaultStartupTimeout    = 30 * time.Second
	DefaultEmbedDim          = 256
	DefaultTopK              = 5
	DefaultFetchK            = 20
	DefaultThinkingSteps     = 1
	DefaultResponseMode      = "compact"
	DefaultDocsDir           = "docs"
	DefaultIndexDir          = "vectorstore/index"
	DefaultFeedbackPath      = "feedback.log"
	DefaultInternetScore     = 0.2
	DefaultDebounce          = time.Second
	DefaultListenAddr        = ":8000"
)

// Config holds every tunable of the retrieval and generation pipeline.
type Config struct {
	// Ingestion.
	DocsDir           string  `toml:"docs_dir"`
	IndexDir          string  `toml:"index_dir"`
	ChunkSize         int     `toml:"chunk_size"`
	ChunkOverlapRatio float64 `toml:"chunk_overlap_ratio"`
	EmbedDim          int     `toml:"embed_dim"`

	// Retrieval.
	TopK          int     `toml:"top_k"`
	FetchK        int     `toml:"fetch_k"`
	InternetScore float64 `toml:"internet_score"`

	// Model connection.
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	Temperature    float64       `toml:"temperature"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	KeepAlive      time.Duration `toml:"keep_alive"`
	ContextWindow  int           `toml:"context_window"`
	NumOutput      int           `toml:"num_output"`
	NumCtx         int           `toml:"num_ctx"`
	NumBatch       int           `toml:"num_batch"`
	NumPredict     int           `toml:"num_predict"`
	AutoStart      bool          `toml:"auto_start"`
	StartupTimeout time.Duration `toml:"startup_timeout"`

	// Generation.
	ThinkingSteps int    `toml:"thinking_steps"`
	ResponseMode  string `toml:"response_mode"`

	// Serving and feedback.
	ListenAddr   string        `toml:"listen_addr"`
	FeedbackPath string        `toml:"feedback_path"`
	Debounce     time.Duration `toml:"debounce"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		DocsDir:           DefaultDocsDir,
		IndexDir:          DefaultIndexDir,
		ChunkSize:         DefaultChunkSize,
		ChunkOverlapRatio: DefaultChunkOverlapRatio,
		EmbedDim:          DefaultEmbedDim,
		TopK:              DefaultTopK,
		FetchK:            DefaultFetchK,
		InternetScore:     DefaultInternetScore,
		BaseURL:           DefaultBaseURL,
		Model:             DefaultModel,
		Temperature:       DefaultTemperature,
		RequestTimeout:    DefaultRequestTimeout,
		KeepAlive:         DefaultKeepAlive,
		ContextWindow:     DefaultContextWindow,
		NumOutput:         DefaultNumOutput,
		NumCtx:            DefaultNumCtx,
		NumBatch:          DefaultNumBatch,
		NumPredict:        DefaultNumPredict,
		StartupTimeout:    DefaultStartupTimeout,
		ThinkingSteps:     DefaultThinkingSteps,
		ResponseMode:      DefaultResponseMode,
		ListenAddr:        DefaultListenAddr,
		FeedbackPath:      DefaultFeedbackPath,
		Debounce:          DefaultDebounce,
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when path is empty or missing), then environment overrides.
// The result is validated; a validation failure is a fatal
// configuration error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file is fine - env and defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfig, path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks the configuration invariants. Violations abort
// startup of the affected component.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ChunkSize, validation.Required, validation.Min(1)),
		validation.Field(&c.ChunkOverlapRatio, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.EmbedDim, validation.Required, validation.Min(1)),
		validation.Field(&c.TopK, validation.Required, validation.Min(1)),
		validation.Field(&c.FetchK, validation.Required, validation.Min(1)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.ThinkingSteps, validation.Min(1)),
		validation.Field(&c.ResponseMode, validation.In("compact", "refine")),
		validation.Field(&c.DocsDir, validation.Required),
		validation.Field(&c.IndexDir, validation.Required),
	)
	if err != nil {
		return err
	}
	if c.FetchK < c.TopK {
		return fmt.Errorf("fetch_k (%d) must be >= top_k (%d)", c.FetchK, c.TopK)
	}
	return nil
}

// applyEnv overrides fields from environment variables. Variable names
// match the original deployment so existing .env files keep working.
func (c *Config) applyEnv() {
	envString(&c.DocsDir, "DOCS_DIR")
	envString(&c.IndexDir, "INDEX_DIR")
	envInt(&c.ChunkSize, "CHUNK_SIZE")
	envFloat(&c.ChunkOverlapRatio, "CHUNK_OVERLAP")
	envInt(&c.EmbedDim, "EMBED_DIM")
	envInt(&c.TopK, "RETRIEVAL_K")
	envInt(&c.FetchK, "FETCH_K")
	envFloat(&c.InternetScore, "INTERNET_SCORE")
	envString(&c.BaseURL, "OLLAMA_API_URL")
	envString(&c.Model, "LLM_MODEL")
	envFloat(&c.Temperature, "TEMPERATURE")
	envSeconds(&c.RequestTimeout, "LLM_REQUEST_TIMEOUT")
	envDuration(&c.KeepAlive, "OLLAMA_KEEP_ALIVE")
	envInt(&c.ContextWindow, "MAX_INPUT_SIZE")
	envInt(&c.NumOutput, "NUM_OUTPUT")
	envInt(&c.NumCtx, "OLLAMA_NUM_CTX")
	envInt(&c.NumBatch, "OLLAMA_NUM_BATCH")
	envInt(&c.NumPredict, "OLLAMA_NUM_PREDICT")
	envBool(&c.AutoStart, "OLLAMA_AUTO_START")
	envSeconds(&c.StartupTimeout, "OLLAMA_STARTUP_TIMEOUT")
	envInt(&c.ThinkingSteps, "THINKING_STEPS")
	envString(&c.ResponseMode, "RESPONSE_MODE")
	envString(&c.ListenAddr, "LISTEN_ADDR")
	envString(&c.FeedbackPath, "FEEDBACK_PATH")
	envSeconds(&c.Debounce, "DEBOUNCE_SECONDS")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		// The original treats any non-empty value as true.
		b, err := strconv.ParseBool(v)
		if err != nil {
			b = true
		}
		*dst = b
	}
}

// envSeconds reads a bare number of seconds, the unit the original
// environment used for timeouts.
func envSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = time.Duration(f * float64(time.Second))
		}
	}
}

// envDuration reads Go duration syntax ("5m", "90s").
func envDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
