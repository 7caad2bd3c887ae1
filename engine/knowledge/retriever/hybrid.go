package retriever

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/novabase-ai/novabase/pkg/logger"
)

// Hybrid fans out to the semantic and keyword retrievers concurrently and
// merges their candidates under a RankingPolicy.
type Hybrid struct {
	semantic *Semantic
	keyword  *Keyword
	policy   RankingPolicy
	// Timeout bounds the whole fan-out; zero means the caller's deadline.
	Timeout time.Duration
	tracer  trace.Tracer
}

// NewHybrid constructs a hybrid retriever with the given policy.
func NewHybrid(semantic *Semantic, keyword *Keyword, policy RankingPolicy) (*Hybrid, error) {
	if semantic == nil {
		return nil, errors.New("retriever: semantic retriever is required")
	}
	if keyword == nil {
		return nil, errors.New("retriever: keyword retriever is required")
	}
	return &Hybrid{
		semantic: semantic,
		keyword:  keyword,
		policy:   policy.normalized(),
		tracer:   otel.Tracer("novabase.knowledge.retriever"),
	}, nil
}

type mergedResult struct {
	result        knowledge.SearchResult
	semanticScore float64
	keywordScore  float64
	inSemantic    bool
	inKeyword     bool
}

// Search runs both retrievers, each over-fetching policy.OverFetchFactor x
// limit candidates, then merges, boosts, and truncates. The second return
// value reports degraded mode when either branch failed.
func (h *Hybrid) Search(
	ctx context.Context,
	query string,
	scope knowledge.Scope,
	limit int,
	threshold float64,
) ([]knowledge.SearchResult, bool) {
	if limit <= 0 {
		limit = knowledge.DefaultTopK
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	ctx, span := h.tracer.Start(ctx, "novabase.knowledge.retriever.hybrid", trace.WithAttributes(
		attribute.String("scope_id", scope.ID()),
		attribute.Int("limit", limit),
	))
	defer span.End()

	fetch := limit * h.policy.OverFetchFactor
	var (
		semanticResults, keywordResults   []knowledge.SearchResult
		semanticDegraded, keywordDegraded bool
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		semanticResults, semanticDegraded = h.semantic.Search(groupCtx, query, scope, fetch, threshold)
		return nil
	})
	group.Go(func() error {
		keywordResults, keywordDegraded = h.keyword.Search(groupCtx, query, scope, fetch)
		return nil
	})
	// Both branches degrade internally instead of failing the group.
	_ = group.Wait()

	merged := h.merge(semanticResults, keywordResults)
	h.boost(query, merged)
	results := make([]knowledge.SearchResult, 0, len(merged))
	for _, m := range merged {
		results = append(results, m.result)
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	degraded := semanticDegraded || keywordDegraded
	span.SetAttributes(
		attribute.Int("results", len(results)),
		attribute.Bool("degraded", degraded),
	)
	logger.FromContext(ctx).Debug(
		"Hybrid search executed",
		"scope_id", scope.ID(),
		"semantic_candidates", len(semanticResults),
		"keyword_candidates", len(keywordResults),
		"results", len(results),
		"degraded", degraded,
	)
	return results, degraded
}

// merge combines candidates by fragment id. Fragments present in both sets
// score semantic*vectorWeight + keyword*keywordWeight; fragments in one set
// keep their single score scaled by its own weight.
func (h *Hybrid) merge(semanticResults, keywordResults []knowledge.SearchResult) map[string]*mergedResult {
	merged := make(map[string]*mergedResult, len(semanticResults)+len(keywordResults))
	for i := range semanticResults {
		res := semanticResults[i]
		merged[res.ID] = &mergedResult{
			result:        res,
			semanticScore: res.Score,
			inSemantic:    true,
		}
	}
	for i := range keywordResults {
		res := keywordResults[i]
		if entry, ok := merged[res.ID]; ok {
			entry.keywordScore = res.Score
			entry.inKeyword = true
			continue
		}
		merged[res.ID] = &mergedResult{
			result:       res,
			keywordScore: res.Score,
			inKeyword:    true,
		}
	}
	for _, entry := range merged {
		score := 0.0
		if entry.inSemantic {
			score += entry.semanticScore * h.policy.VectorWeight
		}
		if entry.inKeyword {
			score += entry.keywordScore * h.policy.KeywordWeight
		}
		entry.result.Score = score
	}
	return merged
}

// boost applies the re-ranking multipliers from the policy.
func (h *Hybrid) boost(query string, merged map[string]*mergedResult) {
	lowerQuery := strings.ToLower(query)
	for _, entry := range merged {
		score := entry.result.Score
		if h.policy.ExactMatchBoost > 0 &&
			strings.Contains(strings.ToLower(entry.result.Text), lowerQuery) {
			score *= h.policy.ExactMatchBoost
		}
		if h.policy.ShortFragmentBoost > 0 &&
			h.policy.ShortFragmentChars > 0 &&
			len(entry.result.Text) < h.policy.ShortFragmentChars {
			score *= h.policy.ShortFragmentBoost
		}
		if h.policy.MetadataConfidenceBoost > 0 {
			if conf, ok := metadataFloat(entry.result.Metadata, h.policy.MetadataConfidenceKey); ok &&
				conf > h.policy.MetadataConfidenceMin {
				score *= h.policy.MetadataConfidenceBoost
			}
		}
		entry.result.Score = score
	}
}

func metadataFloat(metadata map[string]any, key string) (float64, bool) {
	if len(metadata) == 0 || key == "" {
		return 0, false
	}
	switch v := metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
