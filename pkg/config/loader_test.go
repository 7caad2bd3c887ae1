package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults when environment is empty", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.Context.TokenBudget)
		assert.Equal(t, 0.7, cfg.Retrieval.VectorWeight)
		assert.Equal(t, 0.3, cfg.Retrieval.KeywordWeight)
		assert.Equal(t, "openai", cfg.LLM.CostEfficientProvider)
	})

	t.Run("Should override defaults from environment", func(t *testing.T) {
		t.Setenv("NOVABASE_RETRIEVAL_THRESHOLD", "0.5")
		t.Setenv("NOVABASE_LLM_DEFAULT_PROVIDER", "anthropic")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0.5, cfg.Retrieval.Threshold)
		assert.Equal(t, "anthropic", cfg.LLM.DefaultProvider)
	})
}

func TestTransformEnvKey(t *testing.T) {
	t.Run("Should map section and field names", func(t *testing.T) {
		assert.Equal(t, "retrieval.vector_weight", transformEnvKey("RETRIEVAL_VECTOR_WEIGHT"))
		assert.Equal(t, "database.dsn", transformEnvKey("DATABASE_DSN"))
		assert.Equal(t, "log", transformEnvKey("LOG"))
		assert.Equal(t, "", transformEnvKey("___"))
	})
}
