// Package fulltext defines the lexical search contract consumed by keyword
// retrieval. Backends return unscored hits; scoring happens client-side.
package fulltext

import "context"

// Hit is a raw full-text match. It carries no score: the keyword retriever
// computes one from query-word overlap.
type Hit struct {
	ID           string
	Text         string
	Metadata     map[string]any
	DocumentID   string
	DocumentName string
	ScopeID      string
}

// SearchOptions scopes and bounds a full-text query. Exactly one of
// KnowledgeBaseID or ProjectID/DocumentIDs selects the corpus slice.
type SearchOptions struct {
	Limit           int
	KnowledgeBaseID string
	ProjectID       string
	DocumentIDs     []string
}

// Searcher exposes full-text search over the fragment corpus.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error)
}
