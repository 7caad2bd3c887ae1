package llmadapter

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// estimateUsage re-derives token counts when the provider omitted its
// usage block. Models known to tiktoken get an exact BPE count; anything
// else falls back to the chars/4 heuristic.
func estimateUsage(model, prompt, completion string) *Usage {
	promptTokens := countTokens(model, prompt)
	completionTokens := countTokens(model, completion)
	return &Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Estimated:        true,
	}
}

func countTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if encoding, err := tiktoken.EncodingForModel(model); err == nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}
