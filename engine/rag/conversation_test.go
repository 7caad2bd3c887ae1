package rag

import (
	"testing"

	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/stretchr/testify/assert"
)

func TestResolveQuery(t *testing.T) {
	history := []llmadapter.Message{
		{Role: llmadapter.RoleUser, Content: "What is the refund policy?"},
		{Role: llmadapter.RoleAssistant, Content: "Refunds are issued within 30 days."},
	}
	t.Run("Should prepend prior turns for reference-laden queries", func(t *testing.T) {
		got := resolveQuery("Does it apply to sale items?", history)
		assert.Equal(t,
			"Previous context: What is the refund policy?\nRefunds are issued within 30 days.\n\nCurrent question: Does it apply to sale items?",
			got)
	})
	t.Run("Should match reference words case-insensitively", func(t *testing.T) {
		got := resolveQuery("What about THAT one?", history)
		assert.Contains(t, got, "Previous context:")
	})
	t.Run("Should leave self-contained queries unchanged", func(t *testing.T) {
		query := "What is the shipping cost to Spain?"
		assert.Equal(t, query, resolveQuery(query, history))
	})
	t.Run("Should leave queries unchanged without history", func(t *testing.T) {
		query := "Does it apply to sale items?"
		assert.Equal(t, query, resolveQuery(query, nil))
	})
	t.Run("Should not match reference words inside larger words", func(t *testing.T) {
		// "itinerary" contains "it" but is not a reference.
		query := "Show the travel itinerary costs"
		assert.Equal(t, query, resolveQuery(query, history))
	})
}
