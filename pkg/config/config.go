// Package config loads process configuration from defaults and environment
// variables. The resulting Config is read-only after Load returns.
package config

// Config is the root configuration for the engine.
type Config struct {
	LLM       LLMConfig       `koanf:"llm"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Context   ContextConfig   `koanf:"context"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
}

// LLMConfig selects providers for the selection-policy roles and carries
// per-call deadlines.
type LLMConfig struct {
	// DefaultProvider is retried once when the selected provider fails at
	// call time.
	DefaultProvider string `koanf:"default_provider"`
	// CostEfficientProvider answers cost-priority and default selections.
	CostEfficientProvider string `koanf:"cost_efficient_provider"`
	// CreativeProvider answers needs-creativity selections.
	CreativeProvider string `koanf:"creative_provider"`
	// ToolProvider answers requires-tool-use selections.
	ToolProvider string `koanf:"tool_provider"`
	// CallTimeoutSeconds bounds a single chat completion call.
	CallTimeoutSeconds int `koanf:"call_timeout_seconds"`
}

// RetrievalConfig tunes the hybrid retriever.
type RetrievalConfig struct {
	Limit          int     `koanf:"limit"`
	Threshold      float64 `koanf:"threshold"`
	VectorWeight   float64 `koanf:"vector_weight"`
	KeywordWeight  float64 `koanf:"keyword_weight"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
}

// ContextConfig tunes context assembly.
type ContextConfig struct {
	TokenBudget  int `koanf:"token_budget"`
	MaxFragments int `koanf:"max_fragments"`
}

// DatabaseConfig carries the postgres connection string shared by the
// pgvector store, the full-text searcher, and the usage repository.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

// LogConfig tunes process logging.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultProvider:       "openai",
			CostEfficientProvider: "openai",
			CreativeProvider:      "anthropic",
			ToolProvider:          "anthropic",
			CallTimeoutSeconds:    60,
		},
		Retrieval: RetrievalConfig{
			Limit:          5,
			Threshold:      0.7,
			VectorWeight:   0.7,
			KeywordWeight:  0.3,
			TimeoutSeconds: 10,
		},
		Context: ContextConfig{
			TokenBudget:  4000,
			MaxFragments: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
