package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMap(t *testing.T) {
	t.Run("Should return nil for nil input", func(t *testing.T) {
		assert.Nil(t, CloneMap[any](nil))
	})

	t.Run("Should deep copy nested maps", func(t *testing.T) {
		src := map[string]any{
			"outer": map[string]any{"inner": "value"},
			"list":  []any{1, 2},
		}
		clone := CloneMap(src)
		require.Equal(t, src, clone)
		clone["outer"].(map[string]any)["inner"] = "mutated"
		assert.Equal(t, "value", src["outer"].(map[string]any)["inner"])
	})
}
