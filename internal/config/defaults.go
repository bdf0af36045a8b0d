package config

import "time"

// DefaultDelimiter separates the answer from its source list in a completion.
const DefaultDelimiter = "🦒"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	if cfg.Storage.DocsDir == "" {
		cfg.Storage.DocsDir = "./docs"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "./vector_databases"
	}
	if cfg.Storage.RecordsPath == "" {
		cfg.Storage.RecordsPath = "./records.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = 512
	}
	if cfg.Chunking.Tokenizer == "" {
		cfg.Chunking.Tokenizer = "tiktoken"
	}
	if cfg.Chunking.Segmenter == "" {
		cfg.Chunking.Segmenter = "punkt"
	}
	if cfg.Completion.Provider == "" {
		cfg.Completion.Provider = "openai"
	}
	if cfg.Completion.Model == "" {
		switch cfg.Completion.Provider {
		case "gemini":
			cfg.Completion.Model = "gemini-1.5-flash"
		default:
			cfg.Completion.Model = "gpt-4o-mini"
		}
	}
	if cfg.Completion.APIKeyEnv == "" {
		switch cfg.Completion.Provider {
		case "gemini":
			cfg.Completion.APIKeyEnv = "GEMINI_API_KEY"
		default:
			cfg.Completion.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = 60 * time.Second
	}
	if cfg.Chunking.TokenizerModel == "" {
		cfg.Chunking.TokenizerModel = "gpt-4o-mini"
	}
	if cfg.Assistant.TopK == 0 {
		cfg.Assistant.TopK = 5
	}
	if cfg.Assistant.Delimiter == "" {
		cfg.Assistant.Delimiter = DefaultDelimiter
	}
	if cfg.Build.Workers == 0 {
		cfg.Build.Workers = 4
	}
	if cfg.Build.PageWorkers == 0 {
		cfg.Build.PageWorkers = 4
	}
	if cfg.Build.Extensions == nil {
		cfg.Build.Extensions = []string{".jpg", ".jpeg", ".png", ".pdf"}
	}
	if cfg.OCR.URL == "" {
		cfg.OCR.URL = "http://localhost:8866"
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 60 * time.Second
	}
	if cfg.Resilience.MaxRetries == 0 {
		cfg.Resilience.MaxRetries = 3
	}
	if cfg.Resilience.InitialBackoff == 0 {
		cfg.Resilience.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Resilience.MaxBackoff == 0 {
		cfg.Resilience.MaxBackoff = 10 * time.Second
	}
	if cfg.Resilience.RequestsPerSecond == 0 {
		cfg.Resilience.RequestsPerSecond = 5
	}
	if cfg.Resilience.Burst == 0 {
		cfg.Resilience.Burst = 5
	}
	if cfg.Resilience.BreakerFailures == 0 {
		cfg.Resilience.BreakerFailures = 5
	}
	if cfg.Resilience.BreakerTimeout == 0 {
		cfg.Resilience.BreakerTimeout = 30 * time.Second
	}
}
