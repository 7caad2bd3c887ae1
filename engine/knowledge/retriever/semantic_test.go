package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/novabase-ai/novabase/engine/knowledge/retriever"
	"github.com/novabase-ai/novabase/engine/knowledge/vectordb"
)

type stubEmbedder struct {
	fail bool
}

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embed query failed")
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

type stubStore struct {
	matches []vectordb.Match
	fail    bool
}

func (s *stubStore) Upsert(context.Context, []vectordb.Record) error { return nil }

func (s *stubStore) Search(_ context.Context, _ []float32, opts vectordb.SearchOptions) ([]vectordb.Match, error) {
	if s.fail {
		return nil, errors.New("vector search failed")
	}
	filtered := make([]vectordb.Match, 0, len(s.matches))
	for i := range s.matches {
		if s.matches[i].Score < opts.MinScore {
			continue
		}
		filtered = append(filtered, s.matches[i])
	}
	if opts.TopK > 0 && len(filtered) > opts.TopK {
		filtered = filtered[:opts.TopK]
	}
	return append([]vectordb.Match(nil), filtered...), nil
}

func (s *stubStore) Delete(context.Context, vectordb.Filter) error { return nil }
func (s *stubStore) Close(context.Context) error                   { return nil }

func kbScope() knowledge.Scope {
	return knowledge.Scope{KnowledgeBaseID: "kb-1"}
}

func TestSemantic_ShouldRespectThresholdAndOrdering(t *testing.T) {
	store := &stubStore{
		matches: []vectordb.Match{
			{ID: "c", Score: 0.45, Text: "third"},
			{ID: "a", Score: 0.91, Text: "first", DocumentName: "Policies"},
			{ID: "b", Score: 0.72, Text: "second"},
			{ID: "d", Score: 0.30, Text: "low"},
		},
	}
	semantic, err := retriever.NewSemantic(&stubEmbedder{}, store)
	require.NoError(t, err)

	results, degraded := semantic.Search(context.Background(), "query", kbScope(), 3, 0.4)
	assert.False(t, degraded)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "Policies", results[0].DocumentName)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.4)
	}
	assert.True(t, results[0].Score >= results[1].Score)
	assert.True(t, results[1].Score >= results[2].Score)
}

func TestSemantic_ShouldDegradeToEmptyOnEmbedFailure(t *testing.T) {
	semantic, err := retriever.NewSemantic(&stubEmbedder{fail: true}, &stubStore{})
	require.NoError(t, err)
	results, degraded := semantic.Search(context.Background(), "query", kbScope(), 5, 0.7)
	assert.Empty(t, results)
	assert.True(t, degraded)
}

func TestSemantic_ShouldDegradeToEmptyOnSearchFailure(t *testing.T) {
	semantic, err := retriever.NewSemantic(&stubEmbedder{}, &stubStore{fail: true})
	require.NoError(t, err)
	results, degraded := semantic.Search(context.Background(), "query", kbScope(), 5, 0.7)
	assert.Empty(t, results)
	assert.True(t, degraded)
}

func TestSemantic_ShouldRejectConflictingScope(t *testing.T) {
	semantic, err := retriever.NewSemantic(&stubEmbedder{}, &stubStore{})
	require.NoError(t, err)
	scope := knowledge.Scope{KnowledgeBaseID: "kb-1", ProjectID: "proj-1"}
	results, degraded := semantic.Search(context.Background(), "query", scope, 5, 0.7)
	assert.Empty(t, results)
	assert.True(t, degraded)
}
