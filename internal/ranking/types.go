// Package ranking scores candidate files against an issue description and
// selects the top N.
//
// Two signals are computed per candidate: a BM25 lexical score and an
// embedding cosine score. Each signal vector is max-normalized
// independently, the two are combined with caller-supplied weights, and a
// stable descending sort picks the result.
package ranking

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrLengthMismatch is returned when score vectors are not index-aligned.
	ErrLengthMismatch = errors.New("score vectors have different lengths")
	// ErrInvalidWeights is returned for negative, NaN or infinite weights.
	ErrInvalidWeights = errors.New("weights must be finite and non-negative")
)

// ScoreVector holds one score per candidate, index-aligned with the candidates.
type ScoreVector []float64

// Weights controls the contribution of each signal. They need not sum to 1.
type Weights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// Validate checks that both weights are finite and >= 0.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Lexical, w.Semantic} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: lexical=%v semantic=%v", ErrInvalidWeights, w.Lexical, w.Semantic)
		}
	}
	return nil
}

// Scored is one ranked candidate. Lexical and Semantic are the normalized
// component scores that produced Score.
type Scored struct {
	Path     string  `json:"path"`
	Score    float64 `json:"score"`
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// RankedList is ordered by descending Score.
type RankedList []Scored

// Paths returns the candidate paths in rank order.
func (l RankedList) Paths() []string {
	out := make([]string, len(l))
	for i, s := range l {
		out[i] = s.Path
	}
	return out
}
