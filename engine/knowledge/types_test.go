package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeValidate(t *testing.T) {
	t.Run("Should reject an empty scope", func(t *testing.T) {
		assert.ErrorIs(t, Scope{}.Validate(), ErrScopeEmpty)
		assert.ErrorIs(t, Scope{KnowledgeBaseID: "  "}.Validate(), ErrScopeEmpty)
	})
	t.Run("Should reject mixing knowledge base and project selectors", func(t *testing.T) {
		err := Scope{KnowledgeBaseID: "kb-1", ProjectID: "proj-1"}.Validate()
		assert.ErrorIs(t, err, ErrScopeConflict)
		err = Scope{KnowledgeBaseID: "kb-1", DocumentIDs: []string{"doc-1"}}.Validate()
		assert.ErrorIs(t, err, ErrScopeConflict)
	})
	t.Run("Should accept a single selector", func(t *testing.T) {
		assert.NoError(t, Scope{KnowledgeBaseID: "kb-1"}.Validate())
		assert.NoError(t, Scope{ProjectID: "proj-1"}.Validate())
		assert.NoError(t, Scope{DocumentIDs: []string{"doc-1"}}.Validate())
		assert.NoError(t, Scope{ProjectID: "proj-1", DocumentIDs: []string{"doc-1"}}.Validate())
	})
}

func TestScopeID(t *testing.T) {
	t.Run("Should prefer the knowledge base identifier", func(t *testing.T) {
		s := Scope{KnowledgeBaseID: "kb-1", ProjectID: "proj-1", DocumentIDs: []string{"doc-1"}}
		assert.Equal(t, "kb-1", s.ID())
	})
	t.Run("Should fall back to project then first document", func(t *testing.T) {
		assert.Equal(t, "proj-1", Scope{ProjectID: "proj-1", DocumentIDs: []string{"doc-1"}}.ID())
		assert.Equal(t, "doc-1", Scope{DocumentIDs: []string{"doc-1", "doc-2"}}.ID())
		assert.Equal(t, "", Scope{}.ID())
	})
}
