package ranking

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Embedder turns texts into vectors. The embedding package provides the
// production implementations; tests substitute stubs.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SemanticScorer scores candidates by cosine similarity to the query embedding.
type SemanticScorer struct {
	embedder Embedder
}

// NewSemanticScorer creates a scorer backed by embedder.
func NewSemanticScorer(embedder Embedder) *SemanticScorer {
	return &SemanticScorer{embedder: embedder}
}

// Score returns cosine(query, representation_i) for every representation,
// each in [-1, 1]. Embedder errors are returned unchanged.
func (s *SemanticScorer) Score(ctx context.Context, representations []string, query string) (ScoreVector, error) {
	scores := make(ScoreVector, len(representations))
	if len(representations) == 0 {
		return scores, nil
	}

	texts := make([]string, 0, len(representations)+1)
	texts = append(texts, query)
	texts = append(texts, representations...)

	vecs, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	q := toFloat64(vecs[0])
	for i, v := range vecs[1:] {
		scores[i] = Cosine(q, toFloat64(v))
	}
	return scores, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has
// zero norm or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	c := floats.Dot(a, b) / (na * nb)
	// Rounding can push identical vectors slightly past 1.
	switch {
	case c > 1:
		return 1
	case c < -1:
		return -1
	}
	return c
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
