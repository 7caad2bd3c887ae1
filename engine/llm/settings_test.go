package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/novabase-ai/novabase/pkg/config"
)

func TestNewConfigFromSettings(t *testing.T) {
	t.Run("Should map provider roles and the call timeout", func(t *testing.T) {
		providers := map[core.ProviderName]*core.ProviderConfig{
			core.ProviderOpenAI:    {Provider: core.ProviderOpenAI, APIKey: "sk"},
			core.ProviderAnthropic: {Provider: core.ProviderAnthropic, APIKey: "ak"},
		}
		cfg := NewConfigFromSettings(config.LLMConfig{
			DefaultProvider:       "openai",
			CostEfficientProvider: "openai",
			CreativeProvider:      "anthropic",
			ToolProvider:          "anthropic",
			CallTimeoutSeconds:    30,
		}, providers)
		require.NotNil(t, cfg)
		assert.Equal(t, core.ProviderOpenAI, cfg.DefaultProvider)
		assert.Equal(t, core.ProviderOpenAI, cfg.Selection.CostEfficient)
		assert.Equal(t, core.ProviderAnthropic, cfg.Selection.Creative)
		assert.Equal(t, core.ProviderAnthropic, cfg.Selection.Tool)
		assert.Equal(t, 30*time.Second, cfg.CallTimeout)
		assert.Same(t, providers[core.ProviderOpenAI], cfg.Providers[core.ProviderOpenAI])
	})
	t.Run("Should build a working service from the default settings", func(t *testing.T) {
		cfg := NewConfigFromSettings(config.Default().LLM, map[core.ProviderName]*core.ProviderConfig{
			core.ProviderOpenAI: {Provider: core.ProviderOpenAI, APIKey: "sk"},
		})
		service, err := NewService(cfg)
		require.NoError(t, err)
		assert.NotNil(t, service)
	})
}
