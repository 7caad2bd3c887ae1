package vectordb

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/novabase-ai/novabase/engine/core"
)

// MemoryStore is an in-process Store backed by brute-force cosine search.
// Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		record := records[i]
		if record.ID == "" {
			return fmt.Errorf("vectordb: record at index %d has no id", i)
		}
		record.Embedding = append([]float32(nil), record.Embedding...)
		record.Metadata = core.CloneMap(record.Metadata)
		s.records[record.ID] = record
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("vectordb: query embedding is empty")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]Match, 0, len(s.records))
	for _, record := range s.records {
		if !recordInScope(record, opts) {
			continue
		}
		score := cosineSimilarity(query, record.Embedding)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, Match{
			ID:           record.ID,
			Score:        score,
			Text:         record.Text,
			Metadata:     core.CloneMap(record.Metadata),
			DocumentID:   record.DocumentID,
			DocumentName: record.DocumentName,
			ScopeID:      scopeID(record),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

func (s *MemoryStore) Delete(_ context.Context, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.records {
		switch {
		case len(filter.IDs) > 0:
			if slices.Contains(filter.IDs, id) {
				delete(s.records, id)
			}
		case filter.KnowledgeBaseID != "":
			if record.KnowledgeBaseID == filter.KnowledgeBaseID {
				delete(s.records, id)
			}
		case filter.ProjectID != "":
			if record.ProjectID == filter.ProjectID {
				delete(s.records, id)
			}
		}
	}
	return nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

func recordInScope(record Record, opts SearchOptions) bool {
	if opts.KnowledgeBaseID != "" {
		return record.KnowledgeBaseID == opts.KnowledgeBaseID
	}
	if len(opts.DocumentIDs) > 0 {
		return slices.Contains(opts.DocumentIDs, record.DocumentID)
	}
	if opts.ProjectID != "" {
		return record.ProjectID == opts.ProjectID
	}
	return true
}

func scopeID(record Record) string {
	if record.KnowledgeBaseID != "" {
		return record.KnowledgeBaseID
	}
	return record.ProjectID
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
