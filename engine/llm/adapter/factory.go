package llmadapter

import (
	"fmt"

	"github.com/novabase-ai/novabase/engine/core"
)

// DefaultFactory creates langchaingo-backed clients for every supported provider.
type DefaultFactory struct{}

// NewDefaultFactory creates a new DefaultFactory.
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

// CreateClient creates a new LLMClient for the given provider.
func (f *DefaultFactory) CreateClient(config *core.ProviderConfig) (LLMClient, error) {
	if config == nil {
		return nil, fmt.Errorf("llmadapter: provider config must not be nil")
	}
	switch config.Provider {
	case core.ProviderOpenAI, core.ProviderAnthropic, core.ProviderGoogle,
		core.ProviderOllama, core.ProviderMock:
		return NewLangChainAdapter(config)
	default:
		return nil, fmt.Errorf("llmadapter: unsupported provider: %s", config.Provider)
	}
}
