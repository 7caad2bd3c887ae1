package rag

import (
	"fmt"
	"regexp"

	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
)

// referencePattern matches queries that lean on earlier turns for their
// meaning and cannot be retrieved against verbatim.
var referencePattern = regexp.MustCompile(`(?i)\b(it|this|that|them|they|above|previous|earlier)\b`)

// resolveQuery rewrites a reference-laden multi-turn query by prepending
// the last user and assistant turns. Queries that stand on their own are
// returned unchanged.
func resolveQuery(query string, history []llmadapter.Message) string {
	if len(history) == 0 || !referencePattern.MatchString(query) {
		return query
	}
	lastUser := lastByRole(history, llmadapter.RoleUser)
	lastAssistant := lastByRole(history, llmadapter.RoleAssistant)
	if lastUser == "" && lastAssistant == "" {
		return query
	}
	context := lastUser
	if lastAssistant != "" {
		if context != "" {
			context += "\n"
		}
		context += lastAssistant
	}
	return fmt.Sprintf("Previous context: %s\n\nCurrent question: %s", context, query)
}

func lastByRole(history []llmadapter.Message, role string) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == role {
			return history[i].Content
		}
	}
	return ""
}
