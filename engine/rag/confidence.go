package rag

import (
	"regexp"

	"github.com/novabase-ai/novabase/engine/knowledge"
)

// citationPattern detects answers that attribute their content to the
// provided sources.
var citationPattern = regexp.MustCompile(`(?i)based on|according to`)

// ConfidencePolicy holds the additive terms of the answer-confidence
// heuristic. All terms are non-negative, so a normal completion always
// scores at least Base.
type ConfidencePolicy struct {
	Base               float64
	SimilarityWeight   float64
	CountWeight        float64
	CountCap           int
	LengthBonus        float64
	LengthThreshold    int
	CitationBonus      float64
	FallbackConfidence float64
	Max                float64
}

// DefaultConfidencePolicy returns the production scoring terms.
func DefaultConfidencePolicy() ConfidencePolicy {
	return ConfidencePolicy{
		Base:               0.5,
		SimilarityWeight:   0.3,
		CountWeight:        0.1,
		CountCap:           5,
		LengthBonus:        0.1,
		LengthThreshold:    100,
		CitationBonus:      0.05,
		FallbackConfidence: 0.2,
		Max:                1.0,
	}
}

// Score rates an answer grounded in the given sources. The terms add
// the average similarity of used sources, a saturating source-count
// term, and bonuses for substantial and citing answers.
func (p ConfidencePolicy) Score(answer string, sources []knowledge.SearchResult) float64 {
	score := p.Base
	if len(sources) > 0 {
		var sum float64
		for i := range sources {
			sum += sources[i].Score
		}
		score += (sum / float64(len(sources))) * p.SimilarityWeight

		countRatio := float64(len(sources)) / float64(p.CountCap)
		if countRatio > 1 {
			countRatio = 1
		}
		score += countRatio * p.CountWeight
	}
	if len(answer) > p.LengthThreshold {
		score += p.LengthBonus
	}
	if citationPattern.MatchString(answer) {
		score += p.CitationBonus
	}
	if score > p.Max {
		score = p.Max
	}
	return score
}
