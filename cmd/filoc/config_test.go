package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filoc/internal/config"
)

func TestIsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    interface{}
		b    interface{}
		want bool
	}{
		{"equal strings", "hello", "hello", true},
		{"different strings", "hello", "world", false},
		{"equal ints", 42, 42, true},
		{"different ints", 42, 43, false},
		{"different bools", true, false, false},
		{"int vs string representation", 42, "42", true},
		{"nil values", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("isEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestConfigDiff(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ranking.TopN = 5
	cfg.Ranking.BM25.K1 = 1.5
	cfg.Embedder.Kind = "onnx"

	diff, err := configDiff(cfg, config.DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, diff, 2)
	ranking, ok := diff["ranking"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "5", fmt.Sprint(ranking["topN"]))
	assert.Contains(t, ranking, "bm25")
	assert.NotContains(t, ranking, "weightLexical")

	lines := flattenDiff(diff, "")
	assert.Equal(t, []string{
		"embedder.kind = onnx",
		"ranking.bm25.k1 = 1.5",
		"ranking.topN = 5",
	}, lines)
}

func TestConfigDiff_Defaults(t *testing.T) {
	diff, err := configDiff(config.DefaultConfig(), config.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, diff)
	assert.Empty(t, flattenDiff(diff, ""))
}

func TestFlattenDiff_NotesEnvironment(t *testing.T) {
	t.Setenv("FILOC_RANKING_TOPN", "3")

	lines := flattenDiff(map[string]interface{}{
		"ranking": map[string]interface{}{"topN": 3},
	}, "")
	assert.Equal(t, []string{"ranking.topN = 3  (from FILOC_RANKING_TOPN)"}, lines)
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "FILOC_RANKING_TOPN", envVarName("ranking.topN"))
	assert.Equal(t, "FILOC_RANKING_BM25_K1", envVarName("ranking.bm25.k1"))
	assert.Equal(t, "FILOC_CACHE_ENABLED", envVarName("cache.enabled"))
}
