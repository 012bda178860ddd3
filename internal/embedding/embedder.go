// Package embedding provides sentence-embedding models for semantic scoring.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"filoc/internal/config"
	"filoc/internal/errors"
	"filoc/internal/storage"
)

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID identifies the model for cache keys and run records.
	ModelID() string
	Close() error
}

// New builds the embedder selected by cfg.Kind, wrapped in a CachedEmbedder.
// cache may be nil, in which case only the in-memory cache is used.
func New(cfg config.EmbedderConfig, cache *storage.EmbeddingCache, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var inner Embedder
	switch cfg.Kind {
	case "hash", "":
		inner = NewHashEmbedder(cfg.Dimension)
	case "onnx":
		onnx, err := NewOnnxEmbedder(OnnxConfig{
			OrtLibrary:    cfg.OrtLibrary,
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			MaxSeqLen:     cfg.MaxSeqLen,
			ModelID:       cfg.ModelID,
		})
		if err != nil {
			return nil, errors.New(errors.EmbedderUnavailable, "failed to load onnx embedder", err).
				WithDetails(map[string]string{"modelPath": cfg.ModelPath, "tokenizerPath": cfg.TokenizerPath})
		}
		inner = onnx
	default:
		return nil, errors.New(errors.EmbedderUnavailable, fmt.Sprintf("unknown embedder kind %q", cfg.Kind), nil)
	}

	logger.Debug("Embedder ready", "kind", cfg.Kind, "model", inner.ModelID(), "persistentCache", cache != nil)
	return NewCachedEmbedder(inner, cache, logger), nil
}

// NormalizeText applies NFKC, trims whitespace and strips control
// characters other than newline and tab.
func NormalizeText(text string) string {
	normed := strings.TrimSpace(norm.NFKC.String(text))
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
