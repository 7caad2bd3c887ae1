package assembler

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator approximates the token cost of a text.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// HeuristicEstimator charges one token per four characters, rounded up.
// It is the default because it needs no model vocabulary and matches the
// budget arithmetic used throughout the pipeline.
type HeuristicEstimator struct{}

func (HeuristicEstimator) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// TiktokenEstimator counts tokens with a real model vocabulary. Falls back
// to the heuristic when the encoding cannot tokenize the input.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the encoding for the given model name.
func NewTiktokenEstimator(model string) (*TiktokenEstimator, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{encoding: encoding}, nil
}

func (t *TiktokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.encoding == nil {
		return HeuristicEstimator{}.EstimateTokens(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}
