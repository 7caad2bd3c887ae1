package fulltext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySearcher_Search(t *testing.T) {
	searcher := NewMemorySearcher()
	searcher.Index(
		Document{ID: "a", Text: "Our refund policy covers 30 days", KnowledgeBaseID: "kb-1", DocumentName: "Policies"},
		Document{ID: "b", Text: "Shipping takes five days", KnowledgeBaseID: "kb-1"},
		Document{ID: "c", Text: "Refund requests for project work", ProjectID: "proj-1", DocumentID: "doc-3"},
	)

	t.Run("Should match documents containing any query word", func(t *testing.T) {
		hits, err := searcher.Search(context.Background(), "refund policy", SearchOptions{KnowledgeBaseID: "kb-1", Limit: 10})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "a", hits[0].ID)
		assert.Equal(t, "kb-1", hits[0].ScopeID)
	})

	t.Run("Should respect project scope", func(t *testing.T) {
		hits, err := searcher.Search(context.Background(), "refund", SearchOptions{ProjectID: "proj-1", Limit: 10})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "c", hits[0].ID)
	})

	t.Run("Should respect document id scope", func(t *testing.T) {
		hits, err := searcher.Search(context.Background(), "refund", SearchOptions{DocumentIDs: []string{"doc-3"}, Limit: 10})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "c", hits[0].ID)
	})

	t.Run("Should reject empty queries", func(t *testing.T) {
		_, err := searcher.Search(context.Background(), "   ", SearchOptions{})
		require.Error(t, err)
	})
}
