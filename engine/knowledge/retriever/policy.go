package retriever

import (
	"github.com/novabase-ai/novabase/pkg/config"
)

// RankingPolicy holds the weights and boosts applied by the hybrid
// retriever. Tests substitute deterministic policies through this struct
// instead of relying on the built-in numbers.
type RankingPolicy struct {
	VectorWeight  float64
	KeywordWeight float64
	// ExactMatchBoost multiplies fragments containing the literal query
	// substring (case-insensitive).
	ExactMatchBoost float64
	// ShortFragmentBoost multiplies fragments shorter than ShortFragmentChars.
	ShortFragmentBoost float64
	ShortFragmentChars int
	// MetadataConfidenceBoost multiplies fragments whose metadata carries a
	// confidence value above MetadataConfidenceMin.
	MetadataConfidenceBoost float64
	MetadataConfidenceKey   string
	MetadataConfidenceMin   float64
	// OverFetchFactor scales the per-retriever candidate limit.
	OverFetchFactor int
}

// DefaultRankingPolicy returns the production weights.
func DefaultRankingPolicy() RankingPolicy {
	return RankingPolicy{
		VectorWeight:            0.7,
		KeywordWeight:           0.3,
		ExactMatchBoost:         1.2,
		ShortFragmentBoost:      1.1,
		ShortFragmentChars:      500,
		MetadataConfidenceBoost: 1.05,
		MetadataConfidenceKey:   "confidence",
		MetadataConfidenceMin:   0.8,
		OverFetchFactor:         2,
	}
}

// RankingPolicyFromSettings starts from the production weights and
// overrides the branch weights set in the retrieval settings.
func RankingPolicyFromSettings(settings config.RetrievalConfig) RankingPolicy {
	policy := DefaultRankingPolicy()
	if settings.VectorWeight > 0 {
		policy.VectorWeight = settings.VectorWeight
	}
	if settings.KeywordWeight > 0 {
		policy.KeywordWeight = settings.KeywordWeight
	}
	return policy
}

func (p RankingPolicy) normalized() RankingPolicy {
	if p.VectorWeight <= 0 && p.KeywordWeight <= 0 {
		p.VectorWeight = 0.7
		p.KeywordWeight = 0.3
	}
	if p.OverFetchFactor <= 0 {
		p.OverFetchFactor = 2
	}
	return p
}
