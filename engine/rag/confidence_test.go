package rag

import (
	"strings"
	"testing"

	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/stretchr/testify/assert"
)

func TestConfidencePolicy_Score(t *testing.T) {
	policy := DefaultConfidencePolicy()
	t.Run("Should score base plus weighted average similarity", func(t *testing.T) {
		sources := []knowledge.SearchResult{{ID: "a", Score: 0.8}, {ID: "b", Score: 0.6}}
		// avg 0.7 -> 0.5 + 0.7*0.3 + (2/5)*0.1 = 0.75
		got := policy.Score("short", sources)
		assert.InDelta(t, 0.75, got, 1e-9)
	})
	t.Run("Should add the length bonus for answers over the threshold", func(t *testing.T) {
		long := strings.Repeat("x", 101)
		sources := []knowledge.SearchResult{{ID: "a", Score: 0.5}}
		// 0.5 + 0.5*0.3 + (1/5)*0.1 + 0.1 = 0.77
		assert.InDelta(t, 0.77, policy.Score(long, sources), 1e-9)
	})
	t.Run("Should add the citation bonus case-insensitively", func(t *testing.T) {
		sources := []knowledge.SearchResult{{ID: "a", Score: 0.5}}
		with := policy.Score("ACCORDING TO the manual, yes.", sources)
		without := policy.Score("The manual says yes.", sources)
		assert.InDelta(t, 0.05, with-without, 1e-9)
	})
	t.Run("Should saturate the source-count term at the cap", func(t *testing.T) {
		many := make([]knowledge.SearchResult, 9)
		for i := range many {
			many[i] = knowledge.SearchResult{Score: 1.0}
		}
		// 0.5 + 1.0*0.3 + 0.1 = 0.9
		assert.InDelta(t, 0.9, policy.Score("short", many), 1e-9)
	})
	t.Run("Should cap at the maximum", func(t *testing.T) {
		many := make([]knowledge.SearchResult, 5)
		for i := range many {
			many[i] = knowledge.SearchResult{Score: 1.0}
		}
		long := strings.Repeat("y", 200) + " based on the sources"
		assert.InDelta(t, 1.0, policy.Score(long, many), 1e-9)
	})
	t.Run("Should never drop below base for a normal completion", func(t *testing.T) {
		assert.GreaterOrEqual(t, policy.Score("", nil), policy.Base)
	})
}
