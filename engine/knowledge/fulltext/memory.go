package fulltext

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/novabase-ai/novabase/engine/core"
)

// Document is a fragment indexed by the in-memory searcher.
type Document struct {
	ID              string
	Text            string
	Metadata        map[string]any
	DocumentID      string
	DocumentName    string
	KnowledgeBaseID string
	ProjectID       string
}

// MemorySearcher is an in-process Searcher matching documents that contain
// any query word. Safe for concurrent use.
type MemorySearcher struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemorySearcher creates an empty in-memory full-text index.
func NewMemorySearcher() *MemorySearcher {
	return &MemorySearcher{docs: make(map[string]Document)}
}

// Index adds or replaces documents.
func (s *MemorySearcher) Index(docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range docs {
		doc := docs[i]
		doc.Metadata = core.CloneMap(doc.Metadata)
		s.docs[doc.ID] = doc
	}
}

func (s *MemorySearcher) Search(_ context.Context, query string, opts SearchOptions) ([]Hit, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, errors.New("fulltext: query is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := make([]Hit, 0, limit)
	for _, doc := range s.docs {
		if !docInScope(doc, opts) {
			continue
		}
		lower := strings.ToLower(doc.Text)
		matched := false
		for _, word := range words {
			if strings.Contains(lower, word) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		hit := Hit{
			ID:           doc.ID,
			Text:         doc.Text,
			Metadata:     core.CloneMap(doc.Metadata),
			DocumentID:   doc.DocumentID,
			DocumentName: doc.DocumentName,
		}
		if doc.KnowledgeBaseID != "" {
			hit.ScopeID = doc.KnowledgeBaseID
		} else {
			hit.ScopeID = doc.ProjectID
		}
		hits = append(hits, hit)
	}
	// Deterministic order for tests; real ranking happens in the retriever.
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func docInScope(doc Document, opts SearchOptions) bool {
	if opts.KnowledgeBaseID != "" {
		return doc.KnowledgeBaseID == opts.KnowledgeBaseID
	}
	if len(opts.DocumentIDs) > 0 {
		return slices.Contains(opts.DocumentIDs, doc.DocumentID)
	}
	if opts.ProjectID != "" {
		return doc.ProjectID == opts.ProjectID
	}
	return true
}
