// Package knowledge defines the retrieval domain: searchable text
// fragments, query scopes, and the defaults shared by the retrievers.
package knowledge

import (
	"errors"
	"strings"
)

// SearchResult is a stored fragment returned by retrieval. Instances are
// created per query and never mutated afterwards.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	// Score is the retriever-assigned relevance in [0,1].
	Score        float64 `json:"score"`
	DocumentID   string  `json:"document_id,omitempty"`
	DocumentName string  `json:"document_name,omitempty"`
	ScopeID      string  `json:"scope_id,omitempty"`
}

// Scope selects the corpus slice a query runs against. Exactly one of
// KnowledgeBaseID or the project/document selectors must be set.
type Scope struct {
	KnowledgeBaseID string
	ProjectID       string
	DocumentIDs     []string
}

var (
	// ErrScopeEmpty indicates no corpus selector was provided.
	ErrScopeEmpty = errors.New("knowledge: scope requires a knowledge base or a project/document selector")
	// ErrScopeConflict indicates both selectors were provided.
	ErrScopeConflict = errors.New("knowledge: knowledge base and project scopes are mutually exclusive")
)

// Validate enforces the mutual-exclusion rule between scope selectors.
func (s Scope) Validate() error {
	hasKB := strings.TrimSpace(s.KnowledgeBaseID) != ""
	hasProject := strings.TrimSpace(s.ProjectID) != "" || len(s.DocumentIDs) > 0
	if !hasKB && !hasProject {
		return ErrScopeEmpty
	}
	if hasKB && hasProject {
		return ErrScopeConflict
	}
	return nil
}

// ID returns the identifier used for logging and metrics attribution.
func (s Scope) ID() string {
	if s.KnowledgeBaseID != "" {
		return s.KnowledgeBaseID
	}
	if s.ProjectID != "" {
		return s.ProjectID
	}
	if len(s.DocumentIDs) > 0 {
		return s.DocumentIDs[0]
	}
	return ""
}

// Defaults used when callers leave retrieval parameters unset.
const (
	DefaultTopK         = 5
	DefaultMinScore     = 0.7
	DefaultTokenBudget  = 4000
	DefaultMaxFragments = 5
)
