package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novabase-ai/novabase/engine/core"
	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/novabase-ai/novabase/engine/llm/usage"
	"github.com/novabase-ai/novabase/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultCallTimeout = 60 * time.Second

// Config wires the chat service: the provider catalog, the designated
// fallback provider, and the capability-role selection policy.
type Config struct {
	Providers       map[core.ProviderName]*core.ProviderConfig
	DefaultProvider core.ProviderName
	Selection       SelectionPolicy
	CallTimeout     time.Duration
}

// ChatRequest is a direct (non-RAG) multi-provider chat request.
type ChatRequest struct {
	// Provider forces a specific provider. Missing credentials on an
	// explicitly requested provider fail fast with no fallback.
	Provider     core.ProviderName
	Criteria     *SelectionCriteria
	SystemPrompt string
	Messages     []llmadapter.Message
	Tools        []llmadapter.ToolDefinition
	Options      llmadapter.CallOptions
	Tags         usage.Tags
}

// ChatResponse is a completed chat turn.
type ChatResponse struct {
	Content      string
	Provider     core.ProviderName
	Model        string
	Usage        *llmadapter.Usage
	FinishReason string
	// FellBack is true when the default provider answered after the
	// selected provider failed at call time.
	FellBack bool
}

// Service exposes multi-provider chat with credential validation,
// one-shot fallback, and best-effort usage accounting.
type Service struct {
	providers       map[core.ProviderName]*core.ProviderConfig
	defaultProvider core.ProviderName
	selection       SelectionPolicy
	callTimeout     time.Duration
	factory         llmadapter.Factory
	recorder        usage.Recorder
}

// Option customizes service construction.
type Option func(*Service)

// WithFactory overrides the adapter factory. Used by tests to inject
// failing or scripted clients.
func WithFactory(factory llmadapter.Factory) Option {
	return func(s *Service) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithUsageRecorder sets the usage recorder. Defaults to a no-op.
func WithUsageRecorder(recorder usage.Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// NewService creates a chat service from the provider catalog.
func NewService(cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("llm: config is required")
	}
	if len(cfg.Providers) == 0 {
		return nil, errors.New("llm: at least one provider must be configured")
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	service := &Service{
		providers:       cfg.Providers,
		defaultProvider: cfg.DefaultProvider,
		selection:       cfg.Selection,
		callTimeout:     timeout,
		factory:         llmadapter.NewDefaultFactory(),
		recorder:        usage.NopRecorder{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Chat runs one request against the resolved provider, falling back to
// the default provider at most once on call failure. Usage is recorded
// once for the call that succeeded.
func (s *Service) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	tracer := otel.Tracer("novabase.llm")
	ctx, span := tracer.Start(ctx, "llm.chat")
	defer span.End()

	target, err := s.resolveProvider(req)
	if err != nil {
		span.SetStatus(codes.Error, "provider resolution failed")
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("llm.provider", string(target.Provider)))

	response, used, fellBack, err := s.generateWithFallback(ctx, target, req)
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
		span.RecordError(err)
		return nil, err
	}
	s.recordUsage(ctx, used, response.Usage, req.Tags)
	return &ChatResponse{
		Content:      response.Content,
		Provider:     used.Provider,
		Model:        used.Model,
		Usage:        response.Usage,
		FinishReason: response.FinishReason,
		FellBack:     fellBack,
	}, nil
}

// resolveProvider picks the provider and validates its credential
// before any call is made.
func (s *Service) resolveProvider(req *ChatRequest) (*core.ProviderConfig, error) {
	name := s.selection.Select(req.Provider, req.Criteria)
	if name == "" {
		name = s.defaultProvider
	}
	config, ok := s.providers[name]
	if !ok {
		return nil, NewConfigurationError(
			fmt.Errorf("llm: provider %q is not configured", name), name)
	}
	if !config.HasCredential() {
		return nil, NewConfigurationError(
			fmt.Errorf("llm: provider %q has no credential", name), name)
	}
	return config, nil
}

// generateWithFallback runs the call and retries once against the
// default provider on call-time failure. The fallback's own failure
// propagates unmodified.
func (s *Service) generateWithFallback(
	ctx context.Context,
	target *core.ProviderConfig,
	req *ChatRequest,
) (*llmadapter.LLMResponse, *core.ProviderConfig, bool, error) {
	log := logger.FromContext(ctx)
	adapterReq := s.buildAdapterRequest(req)

	response, err := s.generate(ctx, target, adapterReq)
	if err == nil {
		return response, target, false, nil
	}

	fallback := s.fallbackFor(target)
	if fallback == nil {
		return nil, nil, false, NewGenerationError(err, target.Provider, nil)
	}
	log.Error("Provider call failed, retrying once against default provider",
		"provider", target.Provider,
		"fallback_provider", fallback.Provider,
		"error", err,
	)
	response, fbErr := s.generate(ctx, fallback, adapterReq)
	if fbErr != nil {
		return nil, nil, false, NewGenerationError(fbErr, fallback.Provider, map[string]any{
			"original_provider": string(target.Provider),
			"original_error":    err.Error(),
		})
	}
	log.Warn("Fallback provider answered the request",
		"failed_provider", target.Provider,
		"provider", fallback.Provider,
	)
	return response, fallback, true, nil
}

// fallbackFor returns the default provider when it differs from the
// failed one and holds a valid credential, nil otherwise.
func (s *Service) fallbackFor(failed *core.ProviderConfig) *core.ProviderConfig {
	if s.defaultProvider == "" || s.defaultProvider == failed.Provider {
		return nil
	}
	config, ok := s.providers[s.defaultProvider]
	if !ok || !config.HasCredential() {
		return nil
	}
	return config
}

func (s *Service) generate(
	ctx context.Context,
	config *core.ProviderConfig,
	req *llmadapter.LLMRequest,
) (*llmadapter.LLMResponse, error) {
	client, err := s.factory.CreateClient(config)
	if err != nil {
		return nil, core.NewError(err, ErrCodeLLMCreation, map[string]any{
			"provider": string(config.Provider),
		})
	}
	defer client.Close()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return client.GenerateContent(callCtx, req)
}

func (s *Service) buildAdapterRequest(req *ChatRequest) *llmadapter.LLMRequest {
	return &llmadapter.LLMRequest{
		SystemPrompt: req.SystemPrompt,
		Messages:     req.Messages,
		Tools:        req.Tools,
		Options:      req.Options,
	}
}

func (s *Service) recordUsage(
	ctx context.Context,
	config *core.ProviderConfig,
	callUsage *llmadapter.Usage,
	tags usage.Tags,
) {
	if callUsage == nil {
		return
	}
	s.recorder.Record(ctx, &usage.Snapshot{
		Provider:         config.Provider,
		Model:            config.Model,
		PromptTokens:     callUsage.PromptTokens,
		CompletionTokens: callUsage.CompletionTokens,
		TotalTokens:      callUsage.TotalTokens,
		Estimated:        callUsage.Estimated,
		CostPerUnit:      config.CostPerUnit,
		Tags:             tags,
	})
}
