package llmadapter

import (
	"context"
	"fmt"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// buildModel creates a langchaingo model instance for the provider.
func buildModel(config *core.ProviderConfig) (llms.Model, error) {
	switch config.Provider {
	case core.ProviderOpenAI:
		return buildOpenAIModel(config)
	case core.ProviderAnthropic:
		return buildAnthropicModel(config)
	case core.ProviderGoogle:
		return buildGoogleModel(config)
	case core.ProviderOllama:
		return buildOllamaModel(config)
	case core.ProviderMock:
		return NewMockModel(config.Model), nil
	default:
		return nil, fmt.Errorf("llmadapter: unsupported provider: %s", config.Provider)
	}
}

func buildOpenAIModel(p *core.ProviderConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	if p.APIURL != "" {
		opts = append(opts, openai.WithBaseURL(p.APIURL))
	}
	return openai.New(opts...)
}

func buildAnthropicModel(p *core.ProviderConfig) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, anthropic.WithToken(p.APIKey))
	}
	if p.APIURL != "" {
		opts = append(opts, anthropic.WithBaseURL(p.APIURL))
	}
	return anthropic.New(opts...)
}

func buildGoogleModel(p *core.ProviderConfig) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(p.APIKey))
	}
	if p.APIURL != "" {
		return nil, fmt.Errorf("llmadapter: googleai does not support a custom API URL")
	}
	return googleai.New(context.Background(), opts...)
}

func buildOllamaModel(p *core.ProviderConfig) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(p.Model),
	}
	if p.APIURL != "" {
		opts = append(opts, ollama.WithServerURL(p.APIURL))
	}
	return ollama.New(opts...)
}

// MockModel is a deterministic llms.Model used in tests and local runs.
// It echoes the last human message and honors streaming callbacks.
type MockModel struct {
	model string
}

func NewMockModel(model string) *MockModel {
	return &MockModel{model: model}
}

func (m *MockModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	prompt := lastHumanText(messages)
	response := "Mock response"
	if prompt != "" {
		response = fmt.Sprintf("Mock response for: %s", prompt)
	}
	if opts.StreamingFunc != nil {
		for _, word := range splitStreamWords(response) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    response,
			StopReason: "stop",
		}},
	}, nil
}

func (m *MockModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	return fmt.Sprintf("Mock response for: %s", prompt), nil
}

func lastHumanText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				return text.Text
			}
		}
	}
	return ""
}

// splitStreamWords splits a response into word-sized chunks so mock
// streams produce more than one chunk.
func splitStreamWords(text string) []string {
	words := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			words = append(words, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		words = append(words, text[start:])
	}
	return words
}
