package llmadapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/novabase-ai/novabase/pkg/logger"
	"github.com/tmc/langchaingo/llms"
)

// LangChainAdapter adapts a langchaingo model to the LLMClient interface.
type LangChainAdapter struct {
	model      llms.Model
	provider   core.ProviderConfig
	formatters *FormatterRegistry
	parser     *ErrorParser
}

// NewLangChainAdapter creates a client for the given provider configuration.
func NewLangChainAdapter(config *core.ProviderConfig) (*LangChainAdapter, error) {
	if config == nil {
		return nil, fmt.Errorf("llmadapter: provider config must not be nil")
	}
	model, err := buildModel(config)
	if err != nil {
		return nil, fmt.Errorf("llmadapter: create model for %s: %w", config.Provider, err)
	}
	return &LangChainAdapter{
		model:      model,
		provider:   *config.Clone(),
		formatters: NewFormatterRegistry(),
		parser:     NewErrorParser(string(config.Provider)),
	}, nil
}

// GenerateContent implements LLMClient.
func (a *LangChainAdapter) GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	messages := a.formatters.ForProvider(a.provider.Provider).Format(req)
	options := a.buildCallOptions(req)
	response, err := a.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, a.wrapError(err)
	}
	return a.convertResponse(ctx, req, response)
}

// StreamContent implements LLMClient. Chunks are produced on a dedicated
// goroutine; disposing the returned Stream cancels the provider call.
func (a *LangChainAdapter) StreamContent(ctx context.Context, req *LLMRequest) (*Stream, error) {
	messages := a.formatters.ForProvider(a.provider.Provider).Format(req)
	streamCtx, cancel := context.WithCancel(ctx)
	stream := newStream(cancel)
	var assembled strings.Builder
	var mu sync.Mutex
	options := append(a.buildCallOptions(req), llms.WithStreamingFunc(
		func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			mu.Lock()
			assembled.Write(chunk)
			mu.Unlock()
			return stream.send(streamCtx, StreamChunk{Content: string(chunk)})
		},
	))
	go func() {
		defer cancel()
		defer stream.finish()
		response, err := a.model.GenerateContent(streamCtx, messages, options...)
		if err != nil {
			stream.setErr(a.wrapError(err))
			return
		}
		mu.Lock()
		completion := assembled.String()
		mu.Unlock()
		usage := a.responseUsage(ctx, req, response, completion)
		if err := stream.send(streamCtx, StreamChunk{Done: true, Usage: usage}); err != nil {
			stream.setErr(err)
		}
	}()
	return stream, nil
}

// Close implements LLMClient. langchaingo clients hold no resources
// beyond pooled HTTP connections, so there is nothing to release.
func (a *LangChainAdapter) Close() error {
	return nil
}

// buildCallOptions resolves generation parameters for one call.
// Request options win; unset fields fall back to the provider's
// configured Params.
func (a *LangChainAdapter) buildCallOptions(req *LLMRequest) []llms.CallOption {
	resolved := a.resolveOptions(req.Options)
	var options []llms.CallOption
	if resolved.Temperature > 0 {
		options = append(options, llms.WithTemperature(resolved.Temperature))
	}
	if resolved.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(int(resolved.MaxTokens)))
	}
	if resolved.TopP > 0 {
		options = append(options, llms.WithTopP(resolved.TopP))
	}
	if len(resolved.StopWords) > 0 {
		options = append(options, llms.WithStopWords(resolved.StopWords))
	}
	if len(req.Tools) > 0 {
		options = append(options, llms.WithTools(convertTools(req.Tools)))
	}
	if req.Options.UseJSONMode && len(req.Tools) == 0 {
		options = append(options, llms.WithJSONMode())
	}
	return options
}

func (a *LangChainAdapter) resolveOptions(opts CallOptions) CallOptions {
	params := a.provider.Params
	if opts.Temperature <= 0 {
		opts.Temperature = params.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = params.MaxTokens
	}
	if opts.TopP <= 0 {
		opts.TopP = params.TopP
	}
	if len(opts.StopWords) == 0 {
		opts.StopWords = params.StopWords
	}
	return opts
}

func convertTools(tools []ToolDefinition) []llms.Tool {
	converted := make([]llms.Tool, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return converted
}

func (a *LangChainAdapter) convertResponse(
	ctx context.Context,
	req *LLMRequest,
	response *llms.ContentResponse,
) (*LLMResponse, error) {
	if response == nil || len(response.Choices) == 0 {
		return nil, NewErrorWithCode(ErrCodeUnknown, "empty response from provider", string(a.provider.Provider), nil)
	}
	choice := response.Choices[0]
	return &LLMResponse{
		Content:      choice.Content,
		FinishReason: choice.StopReason,
		Usage:        a.responseUsage(ctx, req, response, choice.Content),
	}, nil
}

// responseUsage reads the provider usage block when present and
// re-derives token counts from the texts otherwise.
func (a *LangChainAdapter) responseUsage(
	ctx context.Context,
	req *LLMRequest,
	response *llms.ContentResponse,
	completion string,
) *Usage {
	if response != nil && len(response.Choices) > 0 {
		if usage, ok := usageFromGenerationInfo(response.Choices[0].GenerationInfo); ok {
			return usage
		}
	}
	logger.FromContext(ctx).Debug("Provider returned no usage block, estimating token counts",
		"provider", a.provider.Provider,
		"model", a.provider.Model,
	)
	return estimateUsage(a.provider.Model, promptText(req), completion)
}

func (a *LangChainAdapter) wrapError(err error) error {
	if parsed := a.parser.ParseError(err); parsed != nil {
		return parsed
	}
	return NewErrorWithCode(ErrCodeUnknown, err.Error(), string(a.provider.Provider), err)
}

func promptText(req *LLMRequest) string {
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	for _, msg := range req.Messages {
		b.WriteString("\n")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// usageFromGenerationInfo probes the GenerationInfo keys the langchaingo
// provider backends populate. Key casing differs per provider.
func usageFromGenerationInfo(info map[string]any) (*Usage, bool) {
	if len(info) == 0 {
		return nil, false
	}
	prompt, pok := intFromInfo(info, "PromptTokens", "InputTokens", "prompt_tokens", "input_tokens")
	completion, cok := intFromInfo(info, "CompletionTokens", "OutputTokens", "completion_tokens", "output_tokens")
	if !pok && !cok {
		return nil, false
	}
	total, tok := intFromInfo(info, "TotalTokens", "total_tokens")
	if !tok {
		total = prompt + completion
	}
	return &Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
	}, true
}

func intFromInfo(info map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		value, ok := info[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
	}
	return 0, false
}
