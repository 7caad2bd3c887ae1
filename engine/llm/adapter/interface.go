package llmadapter

import (
	"context"

	"github.com/novabase-ai/novabase/engine/core"
)

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMRequest represents a chat request, independent of provider.
type LLMRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	Options      CallOptions
}

// Message represents a conversation message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// CallOptions represents per-call generation options.
type CallOptions struct {
	Temperature float64
	MaxTokens   int32
	TopP        float64
	StopWords   []string
	UseJSONMode bool
}

// LLMResponse represents a completed (non-streaming) chat response.
type LLMResponse struct {
	Content      string
	FinishReason string
	Usage        *Usage
}

// Usage represents token usage for a single provider call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// Estimated is true when the provider returned no usage block and
	// the counts were re-derived from the request and response text.
	Estimated bool
}

// StreamChunk is one element of a streaming response. Intermediate
// chunks carry Content with Done=false; exactly one terminal chunk
// carries Done=true and the aggregated Usage.
type StreamChunk struct {
	Content string
	Done    bool
	Usage   *Usage
}

// LLMClient is the provider-neutral interface for chat interactions.
type LLMClient interface {
	// GenerateContent sends a request and waits for the full response.
	GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
	// StreamContent sends a request and returns a Stream of chunks.
	// The caller owns the stream and must Close it when done.
	StreamContent(ctx context.Context, req *LLMRequest) (*Stream, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// Factory creates LLMClient instances from provider configuration.
type Factory interface {
	CreateClient(config *core.ProviderConfig) (LLMClient, error)
}
