package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"filoc/internal/storage"
)

// CachedEmbedder memoizes an inner embedder in memory and, optionally, in a
// persistent EmbeddingCache. Only texts missing from both are sent to the
// inner model, in one batch, de-duplicated.
type CachedEmbedder struct {
	inner   Embedder
	store   *storage.EmbeddingCache
	logger  *slog.Logger
	modelID string

	mu  sync.RWMutex
	mem map[string][]float32

	hits, misses int
}

// NewCachedEmbedder wraps inner. store may be nil.
func NewCachedEmbedder(inner Embedder, store *storage.EmbeddingCache, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedEmbedder{
		inner:   inner,
		store:   store,
		logger:  logger,
		modelID: inner.ModelID(),
		mem:     make(map[string][]float32),
	}
}

// ModelID returns the inner model id.
func (c *CachedEmbedder) ModelID() string {
	return c.modelID
}

// Stats returns cache hit and miss counts since construction.
func (c *CachedEmbedder) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// EmbedTexts returns one vector per text, in input order.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var missing []string

	for i, t := range texts {
		key := c.key(t)
		if vec, ok := c.fromMemory(key); ok {
			out[i] = vec
			continue
		}
		if c.store != nil {
			vec, ok, err := c.store.Get(c.modelID, t)
			if err != nil {
				c.logger.Debug("Embedding cache read failed", "error", err)
			} else if ok {
				c.remember(key, vec)
				out[i] = cloneVector(vec)
				continue
			}
		}
		if _, seen := pending[t]; !seen {
			missing = append(missing, t)
		}
		pending[t] = append(pending[t], i)
	}

	c.mu.Lock()
	c.hits += len(texts) - countIndices(pending)
	c.misses += len(missing)
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}

	for j, t := range missing {
		c.remember(c.key(t), vecs[j])
		for _, i := range pending[t] {
			out[i] = cloneVector(vecs[j])
		}
	}

	if c.store != nil {
		if err := c.store.PutBatch(c.modelID, missing, vecs); err != nil {
			c.logger.Warn("Embedding cache write failed", "error", err, "count", len(missing))
		}
	}

	return out, nil
}

// Close closes the inner embedder. The persistent store is owned by the caller.
func (c *CachedEmbedder) Close() error {
	c.mu.Lock()
	c.mem = make(map[string][]float32)
	c.mu.Unlock()
	return c.inner.Close()
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.modelID + "|" + text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) fromMemory(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.mem[key]
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

func (c *CachedEmbedder) remember(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = cloneVector(vec)
}

func countIndices(m map[string][]int) int {
	n := 0
	for _, idx := range m {
		n += len(idx)
	}
	return n
}
