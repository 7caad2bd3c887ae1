// Package assembler greedily packs ranked fragments into a token-bounded
// context window for generation.
package assembler

import (
	"fmt"
	"strings"

	"github.com/novabase-ai/novabase/engine/knowledge"
)

// ContextWindow is the token-bounded concatenation of retrieved fragments.
// Sources is always a prefix of the rank-sorted input: packing stops at the
// first fragment that would exceed the budget.
type ContextWindow struct {
	Text                string
	Sources             []knowledge.SearchResult
	EstimatedTokenCount int
}

// Assembler formats and packs fragments under a token budget.
type Assembler struct {
	estimator TokenEstimator
}

// New constructs an assembler. A nil estimator falls back to the
// character-heuristic estimator.
func New(estimator TokenEstimator) *Assembler {
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	return &Assembler{estimator: estimator}
}

// Assemble packs fragments in rank order until the next formatted fragment
// would exceed tokenBudget. Fragments must arrive sorted descending by
// score; the prefix property of Sources depends on it.
func (a *Assembler) Assemble(fragments []knowledge.SearchResult, tokenBudget int) ContextWindow {
	if tokenBudget <= 0 {
		tokenBudget = knowledge.DefaultTokenBudget
	}
	var builder strings.Builder
	window := ContextWindow{Sources: make([]knowledge.SearchResult, 0, len(fragments))}
	for i := range fragments {
		formatted := FormatFragment(fragments[i])
		cost := a.estimator.EstimateTokens(formatted)
		if window.EstimatedTokenCount+cost > tokenBudget {
			break
		}
		builder.WriteString(formatted)
		window.EstimatedTokenCount += cost
		window.Sources = append(window.Sources, fragments[i])
	}
	window.Text = builder.String()
	return window
}

// FormatFragment renders one fragment as it appears in the context window.
func FormatFragment(fragment knowledge.SearchResult) string {
	name := fragment.DocumentName
	if name == "" {
		name = "Knowledge Base"
	}
	return fmt.Sprintf("Source: %s\n%s\n\n", name, fragment.Text)
}
