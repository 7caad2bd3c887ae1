package rag

import (
	"time"

	"github.com/novabase-ai/novabase/pkg/config"
)

// NewConfigFromSettings maps the application's retrieval and context
// settings onto an orchestrator Config. Zero-valued settings fall back
// to the orchestrator defaults in New.
func NewConfigFromSettings(settings *config.Config, retriever Retriever, chat ChatService) *Config {
	cfg := &Config{
		Retriever: retriever,
		Chat:      chat,
	}
	if settings == nil {
		return cfg
	}
	cfg.Limit = settings.Retrieval.Limit
	cfg.Threshold = settings.Retrieval.Threshold
	cfg.TokenBudget = settings.Context.TokenBudget
	cfg.MaxFragments = settings.Context.MaxFragments
	if settings.Retrieval.TimeoutSeconds > 0 {
		cfg.StageTimeout = time.Duration(settings.Retrieval.TimeoutSeconds) * time.Second
	}
	return cfg
}
