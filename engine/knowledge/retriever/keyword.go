package retriever

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/novabase-ai/novabase/engine/knowledge/fulltext"
	"github.com/novabase-ai/novabase/pkg/logger"
)

// Keyword retrieves fragments by full-text search and scores hits
// client-side as the fraction of query words present in the fragment.
type Keyword struct {
	searcher fulltext.Searcher
	tracer   trace.Tracer
}

// NewKeyword constructs a keyword retriever.
func NewKeyword(searcher fulltext.Searcher) (*Keyword, error) {
	if searcher == nil {
		return nil, errors.New("retriever: full-text searcher is required")
	}
	return &Keyword{
		searcher: searcher,
		tracer:   otel.Tracer("novabase.knowledge.retriever"),
	}, nil
}

// Search runs a scoped full-text query. The second return value reports
// degraded mode, mirroring Semantic.Search.
func (k *Keyword) Search(
	ctx context.Context,
	query string,
	scope knowledge.Scope,
	limit int,
) ([]knowledge.SearchResult, bool) {
	log := logger.FromContext(ctx).With("scope_id", scope.ID())
	if err := scope.Validate(); err != nil {
		log.Error("Keyword search rejected scope", "error", err)
		knowledge.RecordRetrievalError(ctx, scope.ID(), "keyword")
		return nil, true
	}
	if limit <= 0 {
		limit = knowledge.DefaultTopK
	}
	start := time.Now()
	ctx, span := k.tracer.Start(ctx, "novabase.knowledge.retriever.keyword", trace.WithAttributes(
		attribute.String("scope_id", scope.ID()),
		attribute.Int("limit", limit),
	))
	defer span.End()
	knowledge.RecordRetrievalAttempt(ctx, scope.ID(), "keyword")

	hits, err := k.searcher.Search(ctx, query, fulltext.SearchOptions{
		Limit:           limit,
		KnowledgeBaseID: scope.KnowledgeBaseID,
		ProjectID:       scope.ProjectID,
		DocumentIDs:     scope.DocumentIDs,
	})
	if err != nil {
		log.Error("Keyword search failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		knowledge.RecordRetrievalError(ctx, scope.ID(), "keyword_search")
		return nil, true
	}
	queryWords := strings.Fields(strings.ToLower(query))
	results := make([]knowledge.SearchResult, 0, len(hits))
	for i := range hits {
		results = append(results, knowledge.SearchResult{
			ID:           hits[i].ID,
			Text:         hits[i].Text,
			Metadata:     hits[i].Metadata,
			Score:        keywordScore(queryWords, hits[i].Text),
			DocumentID:   hits[i].DocumentID,
			DocumentName: hits[i].DocumentName,
			ScopeID:      hits[i].ScopeID,
		})
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, scope.ID(), "keyword")
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	log.Debug("Keyword search executed", "results", len(results), "duration_seconds", time.Since(start).Seconds())
	return results, false
}

// keywordScore returns matches/<query word count>, where a query word
// matches when it appears in the fragment's word set.
func keywordScore(queryWords []string, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	wordSet := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		wordSet[word] = struct{}{}
	}
	matches := 0
	for _, word := range queryWords {
		if _, ok := wordSet[word]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(queryWords))
}
