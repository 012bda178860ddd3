package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension matches the MiniLM family so caches and reports line up.
const DefaultHashDimension = 384

// HashEmbedder is a deterministic feature-hashing embedder. Word unigrams and
// character trigrams are hashed into a signed bag of features, then L2
// normalized. It needs no model files and is used for offline runs and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hashing embedder. dim <= 0 uses DefaultHashDimension.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

// ModelID returns "hash-<dim>".
func (h *HashEmbedder) ModelID() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

// Dimension returns the vector size.
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// EmbedTexts embeds each text independently.
func (h *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

// Close is a no-op.
func (h *HashEmbedder) Close() error { return nil }

func (h *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dim)

	words := strings.FieldsFunc(strings.ToLower(NormalizeText(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		h.add(vec, "w:"+w, 1)
		padded := []rune("#" + w + "#")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vec, "c:"+string(padded[i:i+3]), 0.5)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(feature))
	sum := hash.Sum32()

	idx := int(sum % uint32(h.dim))
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}
