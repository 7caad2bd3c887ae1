// Package vectordb defines the nearest-neighbor store contract consumed by
// semantic retrieval, with postgres/pgvector and in-memory backends.
package vectordb

import "context"

// Provider enumerates supported vector database backends.
type Provider string

const (
	ProviderPGVector Provider = "pgvector"
	// ProviderMemory keeps embeddings in process memory. Intended for
	// tests and single-node deployments without postgres.
	ProviderMemory Provider = "memory"
)

// Record represents a fragment persisted to the vector store.
type Record struct {
	ID              string
	Text            string
	Embedding       []float32
	Metadata        map[string]any
	DocumentID      string
	DocumentName    string
	KnowledgeBaseID string
	ProjectID       string
}

// SearchOptions controls similarity search execution. Exactly one of
// KnowledgeBaseID or ProjectID/DocumentIDs scopes the search.
type SearchOptions struct {
	TopK            int
	MinScore        float64
	KnowledgeBaseID string
	ProjectID       string
	DocumentIDs     []string
}

// Match captures a similarity search result. Score is in [0,1].
type Match struct {
	ID           string
	Score        float64
	Text         string
	Metadata     map[string]any
	DocumentID   string
	DocumentName string
	ScopeID      string
}

// Filter specifies delete criteria.
type Filter struct {
	IDs             []string
	KnowledgeBaseID string
	ProjectID       string
}

// Store exposes the minimal contract for ingestion and retrieval.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Delete(ctx context.Context, filter Filter) error
	Close(ctx context.Context) error
}

// Config captures normalized connection details for a vector database.
type Config struct {
	Provider  Provider
	DSN       string
	Table     string
	Dimension int
}
