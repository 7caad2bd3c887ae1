package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novabase-ai/novabase/engine/knowledge/fulltext"
	"github.com/novabase-ai/novabase/engine/knowledge/retriever"
)

type stubSearcher struct {
	hits []fulltext.Hit
	fail bool
}

func (s *stubSearcher) Search(context.Context, string, fulltext.SearchOptions) ([]fulltext.Hit, error) {
	if s.fail {
		return nil, errors.New("fulltext backend down")
	}
	return s.hits, nil
}

func TestKeyword_ShouldScoreByQueryWordOverlap(t *testing.T) {
	searcher := &stubSearcher{
		hits: []fulltext.Hit{
			{ID: "a", Text: "the refund policy explained"},
			{ID: "b", Text: "refund requests only"},
			{ID: "c", Text: "completely unrelated text"},
		},
	}
	keyword, err := retriever.NewKeyword(searcher)
	require.NoError(t, err)

	results, degraded := keyword.Search(context.Background(), "refund policy", kbScope(), 5)
	assert.False(t, degraded)
	require.Len(t, results, 3)
	// Both query words present.
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	// One of two query words present.
	assert.Equal(t, "b", results[1].ID)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestKeyword_ShouldMatchCaseInsensitively(t *testing.T) {
	searcher := &stubSearcher{hits: []fulltext.Hit{{ID: "a", Text: "REFUND Policy"}}}
	keyword, err := retriever.NewKeyword(searcher)
	require.NoError(t, err)
	results, _ := keyword.Search(context.Background(), "refund policy", kbScope(), 5)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestKeyword_ShouldDegradeToEmptyOnBackendFailure(t *testing.T) {
	keyword, err := retriever.NewKeyword(&stubSearcher{fail: true})
	require.NoError(t, err)
	results, degraded := keyword.Search(context.Background(), "refund", kbScope(), 5)
	assert.Empty(t, results)
	assert.True(t, degraded)
}
