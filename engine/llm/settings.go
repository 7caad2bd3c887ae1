package llm

import (
	"time"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/novabase-ai/novabase/pkg/config"
)

// NewConfigFromSettings maps the application's llm settings onto a
// service Config over the given provider catalog.
func NewConfigFromSettings(
	settings config.LLMConfig,
	providers map[core.ProviderName]*core.ProviderConfig,
) *Config {
	return &Config{
		Providers:       providers,
		DefaultProvider: core.ProviderName(settings.DefaultProvider),
		Selection: SelectionPolicy{
			CostEfficient: core.ProviderName(settings.CostEfficientProvider),
			Creative:      core.ProviderName(settings.CreativeProvider),
			Tool:          core.ProviderName(settings.ToolProvider),
		},
		CallTimeout: time.Duration(settings.CallTimeoutSeconds) * time.Second,
	}
}
