package llm

import (
	"github.com/novabase-ai/novabase/engine/core"
)

// Error codes for chat operations.
const (
	ErrCodeLLMCreation   = "LLM_CREATION_ERROR"
	ErrCodeLLMGeneration = "LLM_GENERATION_ERROR"

	ErrCodeInvalidConfig = "INVALID_CONFIGURATION"
	ErrCodeMissingConfig = "MISSING_CONFIGURATION"
)

// NewConfigurationError marks a missing or invalid provider credential
// for an explicitly requested provider. Fatal: no retry, no fallback.
func NewConfigurationError(err error, provider core.ProviderName) error {
	return core.NewError(err, ErrCodeMissingConfig, map[string]any{
		"provider": string(provider),
	})
}

// NewGenerationError wraps a provider call failure after fallback was
// exhausted or unavailable.
func NewGenerationError(err error, provider core.ProviderName, details map[string]any) error {
	if details == nil {
		details = make(map[string]any)
	}
	details["provider"] = string(provider)
	return core.NewError(err, ErrCodeLLMGeneration, details)
}

// IsConfigurationError reports whether the error is a credential or
// configuration failure.
func IsConfigurationError(err error) bool {
	return core.IsCode(err, ErrCodeMissingConfig) || core.IsCode(err, ErrCodeInvalidConfig)
}
