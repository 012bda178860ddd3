package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// EmbeddingCache persists embedding vectors across runs.
// Vectors are stored as zstd-compressed little-endian float32.
type EmbeddingCache struct {
	db *DB

	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewEmbeddingCache creates a cache on top of an open database
func NewEmbeddingCache(db *DB) (*EmbeddingCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &EmbeddingCache{db: db, enc: enc, dec: dec}, nil
}

// EmbeddingKey derives the cache key for a text under a model
func EmbeddingKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(modelID + "|" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for text, or ok=false on a miss
func (c *EmbeddingCache) Get(modelID, text string) ([]float32, bool, error) {
	var dim int
	var blob []byte

	err := c.db.QueryRow(`
		SELECT dim, vector FROM embedding_cache WHERE key = ?
	`, EmbeddingKey(modelID, text)).Scan(&dim, &blob)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("embedding cache lookup failed: %w", err)
	}

	vec, err := c.decode(blob, dim)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores the vector for text, replacing any previous entry
func (c *EmbeddingCache) Put(modelID, text string, vec []float32) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO embedding_cache (key, model_id, dim, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, EmbeddingKey(modelID, text), modelID, len(vec), c.encode(vec), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("embedding cache write failed: %w", err)
	}
	return nil
}

// PutBatch stores several vectors in one transaction
func (c *EmbeddingCache) PutBatch(modelID string, texts []string, vecs [][]float32) error {
	if len(texts) != len(vecs) {
		return fmt.Errorf("embedding cache batch: %d texts but %d vectors", len(texts), len(vecs))
	}
	now := time.Now().UTC().Format(time.RFC3339)

	return c.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO embedding_cache (key, model_id, dim, vector, created_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, text := range texts {
			if _, err := stmt.Exec(EmbeddingKey(modelID, text), modelID, len(vecs[i]), c.encode(vecs[i]), now); err != nil {
				return fmt.Errorf("embedding cache write failed: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of cached vectors for a model ("" = all models)
func (c *EmbeddingCache) Count(modelID string) (int, error) {
	var n int
	var err error
	if modelID == "" {
		err = c.db.QueryRow(`SELECT COUNT(*) FROM embedding_cache`).Scan(&n)
	} else {
		err = c.db.QueryRow(`SELECT COUNT(*) FROM embedding_cache WHERE model_id = ?`, modelID).Scan(&n)
	}
	return n, err
}

// Purge removes every cached vector for a model ("" = all models)
func (c *EmbeddingCache) Purge(modelID string) (int64, error) {
	var res sql.Result
	var err error
	if modelID == "" {
		res, err = c.db.Exec(`DELETE FROM embedding_cache`)
	} else {
		res, err = c.db.Exec(`DELETE FROM embedding_cache WHERE model_id = ?`, modelID)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the codec resources. The database stays open.
func (c *EmbeddingCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dec.Close()
	return c.enc.Close()
}

func (c *EmbeddingCache) encode(vec []float32) []byte {
	raw := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(f))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

func (c *EmbeddingCache) decode(blob []byte, dim int) ([]float32, error) {
	c.mu.Lock()
	raw, err := c.dec.DecodeAll(blob, make([]byte, 0, 4*dim))
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("decompressing cached embedding: %w", err)
	}
	if len(raw) != 4*dim {
		return nil, fmt.Errorf("cached embedding has %d bytes, want %d", len(raw), 4*dim)
	}

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}
