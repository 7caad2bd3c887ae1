package llmadapter

import (
	"fmt"
	"strings"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/tmc/langchaingo/llms"
)

// MessageFormatter converts a provider-neutral request into the message
// shape a specific provider expects. The instruction channel differs per
// provider: some accept a dedicated system message, some only accept the
// instruction inlined into the first user turn.
type MessageFormatter interface {
	Format(req *LLMRequest) []llms.MessageContent
}

// FormatterRegistry selects the MessageFormatter for a provider.
type FormatterRegistry struct {
	formatters map[core.ProviderName]MessageFormatter
	fallback   MessageFormatter
}

// NewFormatterRegistry returns a registry covering all supported providers.
func NewFormatterRegistry() *FormatterRegistry {
	system := &systemRoleFormatter{}
	inline := &inlineSystemFormatter{}
	return &FormatterRegistry{
		formatters: map[core.ProviderName]MessageFormatter{
			core.ProviderOpenAI:    system,
			core.ProviderAnthropic: system,
			core.ProviderMock:      system,
			core.ProviderGoogle:    inline,
			core.ProviderOllama:    inline,
		},
		fallback: system,
	}
}

// ForProvider returns the formatter registered for the provider, or the
// system-role formatter when the provider is unknown.
func (r *FormatterRegistry) ForProvider(provider core.ProviderName) MessageFormatter {
	if f, ok := r.formatters[provider]; ok {
		return f
	}
	return r.fallback
}

// Register overrides the formatter for a provider. Used by tests and by
// callers wiring custom providers.
func (r *FormatterRegistry) Register(provider core.ProviderName, f MessageFormatter) {
	if f == nil {
		return
	}
	r.formatters[provider] = f
}

// instructionText combines the system prompt with rendered tool
// descriptors. Tool descriptors ride the instruction channel so every
// provider sees them regardless of native tool-call support.
func instructionText(req *LLMRequest) string {
	instruction := strings.TrimSpace(req.SystemPrompt)
	if len(req.Tools) == 0 {
		return instruction
	}
	descriptors := renderToolDescriptors(req.Tools)
	if instruction == "" {
		return descriptors
	}
	return instruction + "\n\n" + descriptors
}

func renderToolDescriptors(tools []ToolDefinition) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func mapMessageRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleUser:
		return llms.ChatMessageTypeHuman
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// systemRoleFormatter emits the instruction as a distinct system message
// ahead of the conversation.
type systemRoleFormatter struct{}

func (f *systemRoleFormatter) Format(req *LLMRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if instruction := instructionText(req); instruction != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	}
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(mapMessageRole(msg.Role), msg.Content))
	}
	return messages
}

// inlineSystemFormatter serves providers without a system role. The
// instruction is prepended to the first user message; system-role turns
// inside the conversation are folded the same way.
type inlineSystemFormatter struct{}

func (f *inlineSystemFormatter) Format(req *LLMRequest) []llms.MessageContent {
	instruction := instructionText(req)
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	for _, msg := range req.Messages {
		content := msg.Content
		role := msg.Role
		if role == RoleSystem {
			role = RoleUser
		}
		if instruction != "" && role == RoleUser {
			content = instruction + "\n\n" + content
			instruction = ""
		}
		messages = append(messages, llms.TextParts(mapMessageRole(role), content))
	}
	// No user turn absorbed the instruction, emit it as one.
	if instruction != "" {
		messages = append([]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, instruction),
		}, messages...)
	}
	return messages
}
