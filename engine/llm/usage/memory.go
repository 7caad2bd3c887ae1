package usage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Insert(_ context.Context, record *Record) error {
	if record == nil {
		return errors.New("usage: record is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records = append(m.records, &clone)
	return nil
}

func (m *MemoryRepository) ListByProject(_ context.Context, projectID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]*Record, 0, limit)
	for _, rec := range m.records {
		if rec.ProjectID == projectID {
			clone := *rec
			matches = append(matches, &clone)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemoryRepository) SummarizeByProject(_ context.Context, projectID string) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := Summary{}
	for _, rec := range m.records {
		if rec.ProjectID != projectID {
			continue
		}
		summary.Calls++
		summary.PromptTokens += rec.PromptTokens
		summary.CompletionTokens += rec.CompletionTokens
		summary.TotalTokens += rec.TotalTokens
		summary.Cost += rec.Cost
	}
	if summary.Calls == 0 {
		return nil, ErrNotFound
	}
	return &summary, nil
}

// All returns a snapshot of every stored record. Test helper.
func (m *MemoryRepository) All() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		clone := *rec
		out = append(out, &clone)
	}
	return out
}
