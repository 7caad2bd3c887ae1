// Package retriever implements semantic, keyword, and hybrid retrieval over
// the fragment corpus. Retrieval failures degrade to empty results: a search
// backend hiccup must not abort the ability to still answer generically.
package retriever

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/novabase-ai/novabase/engine/knowledge/embedder"
	"github.com/novabase-ai/novabase/engine/knowledge/vectordb"
	"github.com/novabase-ai/novabase/pkg/logger"
)

// Semantic retrieves fragments by nearest-neighbor search over the query
// embedding.
type Semantic struct {
	embedder embedder.Embedder
	store    vectordb.Store
	tracer   trace.Tracer
}

// NewSemantic constructs a semantic retriever.
func NewSemantic(emb embedder.Embedder, store vectordb.Store) (*Semantic, error) {
	if emb == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	if store == nil {
		return nil, errors.New("retriever: vector store is required")
	}
	return &Semantic{
		embedder: emb,
		store:    store,
		tracer:   otel.Tracer("novabase.knowledge.retriever"),
	}, nil
}

// Search embeds the query and runs a scoped nearest-neighbor search.
// The second return value reports degraded mode: true means a backend
// failed and the empty result does not prove the corpus had no matches.
func (s *Semantic) Search(
	ctx context.Context,
	query string,
	scope knowledge.Scope,
	limit int,
	threshold float64,
) ([]knowledge.SearchResult, bool) {
	log := logger.FromContext(ctx).With("scope_id", scope.ID())
	if err := scope.Validate(); err != nil {
		log.Error("Semantic search rejected scope", "error", err)
		knowledge.RecordRetrievalError(ctx, scope.ID(), "semantic")
		return nil, true
	}
	if limit <= 0 {
		limit = knowledge.DefaultTopK
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "novabase.knowledge.retriever.semantic", trace.WithAttributes(
		attribute.String("scope_id", scope.ID()),
		attribute.Int("limit", limit),
	))
	defer span.End()
	knowledge.RecordRetrievalAttempt(ctx, scope.ID(), "semantic")

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Error("Semantic search failed to embed query", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		knowledge.RecordRetrievalError(ctx, scope.ID(), "semantic_embed")
		return nil, true
	}
	matches, err := s.store.Search(ctx, vector, vectordb.SearchOptions{
		TopK:            limit,
		MinScore:        threshold,
		KnowledgeBaseID: scope.KnowledgeBaseID,
		ProjectID:       scope.ProjectID,
		DocumentIDs:     scope.DocumentIDs,
	})
	if err != nil {
		log.Error("Semantic search failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		knowledge.RecordRetrievalError(ctx, scope.ID(), "semantic_search")
		return nil, true
	}
	results := make([]knowledge.SearchResult, 0, len(matches))
	for i := range matches {
		if matches[i].Score < threshold {
			continue
		}
		results = append(results, knowledge.SearchResult{
			ID:           matches[i].ID,
			Text:         matches[i].Text,
			Metadata:     matches[i].Metadata,
			Score:        matches[i].Score,
			DocumentID:   matches[i].DocumentID,
			DocumentName: matches[i].DocumentName,
			ScopeID:      matches[i].ScopeID,
		})
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, scope.ID(), "semantic")
	}
	knowledge.RecordQueryLatency(ctx, scope.ID(), time.Since(start))
	span.SetAttributes(attribute.Int("results", len(results)))
	log.Debug("Semantic search executed", "results", len(results), "duration_seconds", time.Since(start).Seconds())
	return results, false
}

func sortResults(results []knowledge.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})
}
