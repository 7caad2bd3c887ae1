package llmadapter

import (
	"context"
	"testing"
	"time"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func newMockAdapter(t *testing.T) *LangChainAdapter {
	t.Helper()
	adapter, err := NewLangChainAdapter(&core.ProviderConfig{
		Provider: core.ProviderMock,
		Model:    "mock-model",
	})
	require.NoError(t, err)
	return adapter
}

func TestLangChainAdapter_GenerateContent(t *testing.T) {
	t.Run("Should return content with estimated usage", func(t *testing.T) {
		adapter := newMockAdapter(t)
		response, err := adapter.GenerateContent(context.Background(), &LLMRequest{
			SystemPrompt: "Answer briefly.",
			Messages:     []Message{{Role: RoleUser, Content: "what is the refund policy?"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Mock response for: what is the refund policy?", response.Content)
		require.NotNil(t, response.Usage)
		assert.True(t, response.Usage.Estimated)
		assert.Positive(t, response.Usage.PromptTokens)
		assert.Positive(t, response.Usage.CompletionTokens)
		assert.Equal(t,
			response.Usage.PromptTokens+response.Usage.CompletionTokens,
			response.Usage.TotalTokens)
	})
}

func TestLangChainAdapter_StreamContent(t *testing.T) {
	t.Run("Should emit content chunks then exactly one terminal chunk with usage", func(t *testing.T) {
		adapter := newMockAdapter(t)
		stream, err := adapter.StreamContent(context.Background(), &LLMRequest{
			Messages: []Message{{Role: RoleUser, Content: "hello world"}},
		})
		require.NoError(t, err)
		defer stream.Close()

		var content string
		var terminal int
		for chunk := range stream.Chunks() {
			if chunk.Done {
				terminal++
				require.NotNil(t, chunk.Usage)
				assert.Positive(t, chunk.Usage.TotalTokens)
				continue
			}
			assert.Nil(t, chunk.Usage)
			content += chunk.Content
		}
		require.NoError(t, stream.Err())
		assert.Equal(t, 1, terminal)
		assert.Equal(t, "Mock response for: hello world", content)
	})
	t.Run("Should tear down the upstream call when the consumer stops early", func(t *testing.T) {
		adapter := newMockAdapter(t)
		stream, err := adapter.StreamContent(context.Background(), &LLMRequest{
			Messages: []Message{{Role: RoleUser, Content: "a long answer with many words to stream"}},
		})
		require.NoError(t, err)

		// Consume two chunks, then walk away.
		<-stream.Chunks()
		<-stream.Chunks()

		closed := make(chan struct{})
		go func() {
			_ = stream.Close()
			close(closed)
		}()
		select {
		case <-closed:
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not release the producer after Close")
		}
		// The channel is closed once the producer exits.
		_, open := <-stream.Chunks()
		assert.False(t, open)
	})
	t.Run("Should propagate context cancellation to the producer", func(t *testing.T) {
		adapter := newMockAdapter(t)
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := adapter.StreamContent(ctx, &LLMRequest{
			Messages: []Message{{Role: RoleUser, Content: "stream me several words please"}},
		})
		require.NoError(t, err)
		<-stream.Chunks()
		cancel()
		require.NoError(t, stream.Close())
	})
}

func TestLangChainAdapter_BuildCallOptions(t *testing.T) {
	newAdapter := func(t *testing.T, params core.PromptParams) *LangChainAdapter {
		t.Helper()
		adapter, err := NewLangChainAdapter(&core.ProviderConfig{
			Provider: core.ProviderMock,
			Model:    "mock-model",
			Params:   params,
		})
		require.NoError(t, err)
		return adapter
	}
	resolve := func(adapter *LangChainAdapter, req *LLMRequest) llms.CallOptions {
		var resolved llms.CallOptions
		for _, opt := range adapter.buildCallOptions(req) {
			opt(&resolved)
		}
		return resolved
	}
	t.Run("Should apply the provider's configured parameters when request options are unset", func(t *testing.T) {
		resolved := resolve(newAdapter(t, core.PromptParams{
			Temperature: 0.9,
			MaxTokens:   512,
			TopP:        0.5,
			StopWords:   []string{"END"},
		}), &LLMRequest{})
		assert.Equal(t, 0.9, resolved.Temperature)
		assert.Equal(t, 512, resolved.MaxTokens)
		assert.Equal(t, 0.5, resolved.TopP)
		assert.Equal(t, []string{"END"}, resolved.StopWords)
	})
	t.Run("Should let request options override the provider parameters", func(t *testing.T) {
		resolved := resolve(newAdapter(t, core.PromptParams{
			Temperature: 0.9,
			MaxTokens:   512,
		}), &LLMRequest{
			Options: CallOptions{Temperature: 0.2, MaxTokens: 64},
		})
		assert.Equal(t, 0.2, resolved.Temperature)
		assert.Equal(t, 64, resolved.MaxTokens)
	})
}

func TestDefaultFactory_CreateClient(t *testing.T) {
	factory := NewDefaultFactory()
	t.Run("Should create a client for supported providers", func(t *testing.T) {
		client, err := factory.CreateClient(&core.ProviderConfig{
			Provider: core.ProviderMock,
			Model:    "mock-model",
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NoError(t, client.Close())
	})
	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := factory.CreateClient(&core.ProviderConfig{Provider: "fax-machine"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")
	})
	t.Run("Should reject a nil config", func(t *testing.T) {
		_, err := factory.CreateClient(nil)
		require.Error(t, err)
	})
}

func TestUsageFromGenerationInfo(t *testing.T) {
	t.Run("Should read openai-style keys", func(t *testing.T) {
		usage, ok := usageFromGenerationInfo(map[string]any{
			"PromptTokens":     12,
			"CompletionTokens": 30,
			"TotalTokens":      42,
		})
		require.True(t, ok)
		assert.Equal(t, 12, usage.PromptTokens)
		assert.Equal(t, 30, usage.CompletionTokens)
		assert.Equal(t, 42, usage.TotalTokens)
		assert.False(t, usage.Estimated)
	})
	t.Run("Should derive the total from anthropic-style keys", func(t *testing.T) {
		usage, ok := usageFromGenerationInfo(map[string]any{
			"InputTokens":  7,
			"OutputTokens": 5,
		})
		require.True(t, ok)
		assert.Equal(t, 12, usage.TotalTokens)
	})
	t.Run("Should report absence when no token keys exist", func(t *testing.T) {
		_, ok := usageFromGenerationInfo(map[string]any{"FinishReason": "stop"})
		assert.False(t, ok)
	})
}

func TestCountTokens(t *testing.T) {
	t.Run("Should fall back to the chars-over-four heuristic for unknown models", func(t *testing.T) {
		assert.Equal(t, 3, countTokens("unknown-model", "0123456789"))
		assert.Equal(t, 0, countTokens("unknown-model", ""))
	})
}
