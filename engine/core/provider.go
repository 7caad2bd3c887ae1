package core

// ProviderName identifies an interchangeable chat-completion backend.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderOllama    ProviderName = "ollama"
	ProviderMock      ProviderName = "mock" // Mock provider for testing
)

// PromptParams carries provider-tunable generation parameters.
type PromptParams struct {
	MaxTokens   int32    `json:"max_tokens,omitempty"  yaml:"max_tokens,omitempty"  koanf:"max_tokens"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty" koanf:"temperature"`
	TopP        float64  `json:"top_p,omitempty"       yaml:"top_p,omitempty"       koanf:"top_p"`
	StopWords   []string `json:"stop_words,omitempty"  yaml:"stop_words,omitempty"  koanf:"stop_words"`
	Seed        int      `json:"seed,omitempty"        yaml:"seed,omitempty"        koanf:"seed"`
}

// ProviderConfig represents provider-specific configuration options.
// Instances are read-only after process start and safe to share.
type ProviderConfig struct {
	Provider ProviderName `json:"provider"                yaml:"provider"                koanf:"provider"`
	Model    string       `json:"model"                   yaml:"model"                   koanf:"model"`
	APIKey   string       `json:"api_key"                 yaml:"api_key"                 koanf:"api_key"`
	APIURL   string       `json:"api_url,omitempty"       yaml:"api_url,omitempty"       koanf:"api_url"`
	Params   PromptParams `json:"params"                  yaml:"params"                  koanf:"params"`
	// CostPerUnit is the price per 1k tokens used by usage accounting.
	CostPerUnit float64        `json:"cost_per_unit,omitempty" yaml:"cost_per_unit,omitempty" koanf:"cost_per_unit"`
	Extra       map[string]any `json:"extra,omitempty"         yaml:"extra,omitempty"         koanf:"extra"`
}

// NewProviderConfig creates a new ProviderConfig for the given provider and model.
func NewProviderConfig(provider ProviderName, model string, apiKey string) *ProviderConfig {
	return &ProviderConfig{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
	}
}

// HasCredential reports whether the provider can authenticate. Local
// providers that need no key must set Extra["local"] = true.
func (p *ProviderConfig) HasCredential() bool {
	if p == nil {
		return false
	}
	if p.APIKey != "" {
		return true
	}
	if local, ok := p.Extra["local"].(bool); ok && local {
		return true
	}
	return false
}

// Clone returns a copy that shares no mutable state with the receiver.
func (p *ProviderConfig) Clone() *ProviderConfig {
	if p == nil {
		return nil
	}
	clone := *p
	if len(p.Params.StopWords) > 0 {
		clone.Params.StopWords = append([]string(nil), p.Params.StopWords...)
	}
	clone.Extra = CloneMap(p.Extra)
	return &clone
}
