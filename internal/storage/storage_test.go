package storage

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	for _, table := range []string{"schema_version", "embedding_cache", "eval_runs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestReopenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := Open(path, nil)
	require.NoError(t, err)
	// Simulate a database created before the run history table existed.
	_, err = db.Exec(`DROP TABLE eval_runs`)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_version SET version = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, nil)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	_, err = NewRunStore(db).List(0)
	assert.NoError(t, err)
}

func TestEmbeddingCache_GetPut(t *testing.T) {
	db := setupTestDB(t)
	cache, err := NewEmbeddingCache(db)
	require.NoError(t, err)
	defer cache.Close()

	_, ok, err := cache.Get("hash-4", "src/foo.py")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache should miss")

	vec := []float32{0.5, -1.25, 0, 3.75}
	require.NoError(t, cache.Put("hash-4", "src/foo.py", vec))

	got, ok, err := cache.Get("hash-4", "src/foo.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok, err = cache.Get("other-model", "src/foo.py")
	require.NoError(t, err)
	assert.False(t, ok, "keys are scoped by model")
}

func TestEmbeddingCache_PutBatchAndPurge(t *testing.T) {
	db := setupTestDB(t)
	cache, err := NewEmbeddingCache(db)
	require.NoError(t, err)
	defer cache.Close()

	texts := []string{"a.py", "b.py", "c.py"}
	vecs := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	require.NoError(t, cache.PutBatch("m1", texts, vecs))
	require.NoError(t, cache.Put("m2", "a.py", []float32{9, 9}))

	n, err := cache.Count("m1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = cache.Count("")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	removed, err := cache.Purge("m1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	got, ok, err := cache.Get("m2", "a.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{9, 9}, got)

	assert.Error(t, cache.PutBatch("m1", texts, vecs[:1]), "length mismatch must fail")
}

func TestEmbeddingKey(t *testing.T) {
	assert.Equal(t, EmbeddingKey("m", "x"), EmbeddingKey("m", "x"))
	assert.NotEqual(t, EmbeddingKey("m", "x"), EmbeddingKey("n", "x"))
	assert.Len(t, EmbeddingKey("m", "x"), 64)
}

func TestRunStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewRunStore(db)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := RunRecord{
		RunID: "run-1", Dataset: "lite.jsonl", TopN: 10, WeightLexical: 0.5, WeightSemantic: 0.5,
		Representation: "path", ModelID: "hash-384", Total: 4, Hits: 1, Accuracy: 0.25,
		StartedAt: base, FinishedAt: base.Add(time.Minute),
	}
	newer := older
	newer.RunID = "run-2"
	newer.Hits = 3
	newer.Accuracy = 0.75
	newer.ResultsPath = "results_top10_lex0.5_sem0.5.json"
	newer.StartedAt = base.Add(time.Hour)
	newer.FinishedAt = base.Add(2 * time.Hour)

	require.NoError(t, store.Record(older))
	require.NoError(t, store.Record(newer))

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 3, runs[0].Hits)
	assert.Equal(t, newer.StartedAt, runs[0].StartedAt)
	assert.Equal(t, "", runs[1].ResultsPath)

	runs, err = store.List(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
