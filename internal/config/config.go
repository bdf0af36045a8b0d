// Package config provides configuration loading and structs for the tebiki server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Completion CompletionConfig `yaml:"completion"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Build      BuildConfig      `yaml:"build"`
	OCR        OCRConfig        `yaml:"ocr"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// WatchIndexes reloads a manual's cached index when its file is rewritten.
	WatchIndexes *bool `yaml:"watch_indexes"`
}

// WatchIndexesOrDefault returns whether to watch the index directory; defaults to true when unset.
func (s *ServerConfig) WatchIndexesOrDefault() bool {
	if s.WatchIndexes != nil {
		return *s.WatchIndexes
	}
	return true
}

// StorageConfig holds paths for page images, indexes, and the records file.
type StorageConfig struct {
	DocsDir     string `yaml:"docs_dir"`
	IndexDir    string `yaml:"index_dir"`
	RecordsPath string `yaml:"records_path"`
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	// Provider is one of onnx, openai, hash.
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	VocabPath  string `yaml:"vocab_path"`
	OutputName string `yaml:"output_name"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BaseURL    string `yaml:"base_url"`
}

// ChunkingConfig holds chunk budget and the tokenizer/segmenter choice.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	// OverlapTokens is a pointer so an explicit 0 (no overlap) survives defaulting.
	OverlapTokens  *int   `yaml:"overlap_tokens"`
	Tokenizer      string `yaml:"tokenizer"`
	TokenizerModel string `yaml:"tokenizer_model"`
	Segmenter      string `yaml:"segmenter"`
}

// OverlapOrDefault returns the overlap budget; defaults to 50 when unset.
func (c *ChunkingConfig) OverlapOrDefault() int {
	if c.OverlapTokens != nil {
		return *c.OverlapTokens
	}
	return 50
}

// CompletionConfig selects and configures the chat completion service.
type CompletionConfig struct {
	// Provider is one of openai, gemini.
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AssistantConfig holds query-time settings.
type AssistantConfig struct {
	TopK      int    `yaml:"top_k"`
	Delimiter string `yaml:"delimiter"`
	// DedupeCitations drops repeated paths from parsed citations.
	DedupeCitations bool `yaml:"dedupe_citations"`
}

// BuildConfig holds offline build settings.
type BuildConfig struct {
	// Workers bounds manuals embedded concurrently.
	Workers int `yaml:"workers"`
	// PageWorkers bounds pages extracted and chunked concurrently.
	PageWorkers int      `yaml:"page_workers"`
	Extensions  []string `yaml:"extensions"`
}

// OCRConfig points at the OCR HTTP service.
type OCRConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ResilienceConfig tunes retry, rate limiting and circuit breaking around remote calls.
type ResilienceConfig struct {
	MaxRetries        uint          `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or if a value is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DocsDir = expandPath(cfg.Storage.DocsDir, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	cfg.Storage.RecordsPath = expandPath(cfg.Storage.RecordsPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Embedding.VocabPath != "" {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	}

	return &cfg, nil
}

// Validate reports values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "onnx", "openai", "hash":
	default:
		return fmt.Errorf("embedding.provider: unknown provider %q (supported: onnx, openai, hash)", c.Embedding.Provider)
	}
	switch c.Completion.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("completion.provider: unknown provider %q (supported: openai, gemini)", c.Completion.Provider)
	}
	if overlap := c.Chunking.OverlapOrDefault(); overlap < 0 || overlap >= c.Chunking.MaxTokens {
		return fmt.Errorf("chunking.overlap_tokens must be in [0, %d), got %d", c.Chunking.MaxTokens, overlap)
	}
	if strings.TrimSpace(c.Assistant.Delimiter) == "" {
		return fmt.Errorf("assistant.delimiter must not be blank")
	}
	if strings.ContainsAny(c.Assistant.Delimiter, "\r\n") {
		return fmt.Errorf("assistant.delimiter must be a single line")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
