package expander

import (
	"context"
	"errors"
	"testing"

	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	content string
	err     error
	lastReq *llmadapter.LLMRequest
}

func (s *stubGenerator) GenerateContent(
	_ context.Context,
	req *llmadapter.LLMRequest,
) (*llmadapter.LLMResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llmadapter.LLMResponse{Content: s.content}, nil
}

func TestExpander_Expand(t *testing.T) {
	t.Run("Should parse a valid expansion payload", func(t *testing.T) {
		gen := &stubGenerator{content: `{
			"expanded_queries": ["what is the refund policy", "how do refunds work"],
			"keywords": ["refund", "policy"],
			"intent": "policy_question"
		}`}
		e, err := New(gen)
		require.NoError(t, err)
		expansion := e.Expand(context.Background(), "refund policy?")
		assert.Equal(t,
			[]string{"what is the refund policy", "how do refunds work"},
			expansion.ExpandedQueries)
		assert.Equal(t, []string{"refund", "policy"}, expansion.Keywords)
		assert.Equal(t, "policy_question", expansion.Intent)
	})
	t.Run("Should issue a low-temperature JSON-mode call", func(t *testing.T) {
		gen := &stubGenerator{content: `{"expanded_queries":["q"],"keywords":[],"intent":"x"}`}
		e, err := New(gen)
		require.NoError(t, err)
		e.Expand(context.Background(), "q")
		require.NotNil(t, gen.lastReq)
		assert.InDelta(t, 0.1, gen.lastReq.Options.Temperature, 1e-9)
		assert.True(t, gen.lastReq.Options.UseJSONMode)
	})
	t.Run("Should tolerate prose around the JSON object", func(t *testing.T) {
		gen := &stubGenerator{content: "Here is the analysis:\n" +
			`{"expanded_queries":["alt"],"keywords":["kw"],"intent":"lookup"}` +
			"\nLet me know if you need more."}
		e, err := New(gen)
		require.NoError(t, err)
		expansion := e.Expand(context.Background(), "query")
		assert.Equal(t, []string{"alt"}, expansion.ExpandedQueries)
		assert.Equal(t, "lookup", expansion.Intent)
	})
	t.Run("Should fall back to heuristics when the call fails", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("provider down")}
		e, err := New(gen)
		require.NoError(t, err)
		expansion := e.Expand(context.Background(), "what is an embedding")
		assert.Equal(t, []string{"what is an embedding"}, expansion.ExpandedQueries)
		assert.Equal(t, []string{"what", "embedding"}, expansion.Keywords)
		assert.Equal(t, DefaultIntent, expansion.Intent)
	})
	t.Run("Should fall back when the payload fails schema validation", func(t *testing.T) {
		gen := &stubGenerator{content: `{"expanded_queries": [], "keywords": [], "intent": ""}`}
		e, err := New(gen)
		require.NoError(t, err)
		expansion := e.Expand(context.Background(), "broken payload case")
		assert.Equal(t, []string{"broken payload case"}, expansion.ExpandedQueries)
		assert.Equal(t, DefaultIntent, expansion.Intent)
	})
	t.Run("Should fall back when the output contains no JSON", func(t *testing.T) {
		gen := &stubGenerator{content: "I cannot help with that."}
		e, err := New(gen)
		require.NoError(t, err)
		expansion := e.Expand(context.Background(), "hi")
		assert.Equal(t, []string{"hi"}, expansion.ExpandedQueries)
	})
}

func TestHeuristicExpansion(t *testing.T) {
	t.Run("Should keep only words longer than two characters", func(t *testing.T) {
		expansion := HeuristicExpansion("is it an LLM or a db")
		assert.Equal(t, []string{"LLM"}, expansion.Keywords)
		assert.Equal(t, []string{"is it an LLM or a db"}, expansion.ExpandedQueries)
		assert.Equal(t, DefaultIntent, expansion.Intent)
	})
	t.Run("Should return no keywords for an empty query", func(t *testing.T) {
		expansion := HeuristicExpansion("")
		assert.Empty(t, expansion.Keywords)
		assert.Equal(t, []string{""}, expansion.ExpandedQueries)
	})
}
