package ranking

import (
	"context"
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"
)

// lengthEmbedder derives a deterministic non-zero vector from the text length.
type lengthEmbedder struct{}

func (lengthEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		n := len(t)
		out[i] = []float32{float32(n%7) + 1, float32(n % 3), float32(n%5) - 2}
	}
	return out, nil
}

func scoreVectorGen(min, max float64) *rapid.Generator[[]float64] {
	return rapid.SliceOfN(rapid.Float64Range(min, max), 1, 40)
}

func TestProperty_RankLength(t *testing.T) {
	words := rapid.SampledFrom([]string{"foo", "bar", "baz", "core", "models", "views", "utils"})
	pathGen := rapid.Custom(func(t *rapid.T) string {
		return words.Draw(t, "dir") + "/" + words.Draw(t, "file") + ".py"
	})

	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOfN(pathGen, 1, 30).Draw(t, "paths")
		query := words.Draw(t, "q1") + " " + words.Draw(t, "q2")
		n := rapid.IntRange(0, 40).Draw(t, "n")
		w := Weights{
			Lexical:  rapid.Float64Range(0, 5).Draw(t, "wl"),
			Semantic: rapid.Float64Range(0, 5).Draw(t, "ws"),
		}

		got, err := NewRanker(lengthEmbedder{}).Rank(context.Background(), paths, query, PathOnly(), n, w)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		want := n
		if len(paths) < want {
			want = len(paths)
		}
		if len(got) != want {
			t.Fatalf("len = %d, want min(%d, %d)", len(got), n, len(paths))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Fatalf("not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
			}
		}
	})
}

func TestProperty_NormalizeScaleInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := ScoreVector(scoreVectorGen(0, 100).Draw(t, "v"))
		c := rapid.Float64Range(0.01, 100).Draw(t, "c")

		scaled := make(ScoreVector, len(v))
		for i := range v {
			scaled[i] = v[i] * c
		}

		a, b := Normalize(v), Normalize(scaled)
		for i := range a {
			if math.Abs(a[i]-b[i]) > 1e-9 {
				t.Fatalf("index %d: %v vs %v", i, a[i], b[i])
			}
		}
	})
}

func TestProperty_NormalizeBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := ScoreVector(scoreVectorGen(-1, 50).Draw(t, "v"))
		orig := append(ScoreVector(nil), v...)
		got := Normalize(v)

		for i := range v {
			if v[i] != orig[i] {
				t.Fatalf("input modified at %d", i)
			}
			if math.IsNaN(got[i]) || math.IsInf(got[i], 0) {
				t.Fatalf("non-finite output at %d", i)
			}
		}

		max := math.Inf(-1)
		for _, x := range v {
			max = math.Max(max, x)
		}
		if max > 0 {
			for i, x := range got {
				if x > 1+1e-12 {
					t.Fatalf("normalized value %v > 1 at %d", x, i)
				}
			}
		}
	})
}

func TestProperty_ZeroLexicalReducesToSemantic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sem := ScoreVector(scoreVectorGen(-1, 1).Draw(t, "sem"))
		lex := make(ScoreVector, len(sem))
		w := Weights{
			Lexical:  rapid.Float64Range(0, 5).Draw(t, "wl"),
			Semantic: rapid.Float64Range(0, 5).Draw(t, "ws"),
		}

		combined, err := Combine(lex, sem, w)
		if err != nil {
			t.Fatal(err)
		}
		ns := Normalize(sem)
		for i := range combined {
			if math.Abs(combined[i]-w.Semantic*ns[i]) > 1e-12 {
				t.Fatalf("index %d: %v != %v*%v", i, combined[i], w.Semantic, ns[i])
			}
		}
	})
}

func TestProperty_WeightMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lex := ScoreVector(scoreVectorGen(0, 10).Draw(t, "lex"))
		sem := make(ScoreVector, len(lex))
		for i := range sem {
			sem[i] = rapid.Float64Range(-1, 1).Draw(t, fmt.Sprintf("sem%d", i))
		}
		wl := rapid.Float64Range(0, 3).Draw(t, "wl")
		ws1 := rapid.Float64Range(0, 3).Draw(t, "ws1")
		ws2 := ws1 + rapid.Float64Range(0.01, 3).Draw(t, "delta")

		before, _ := Combine(lex, sem, Weights{wl, ws1})
		after, _ := Combine(lex, sem, Weights{wl, ws2})
		ns := Normalize(sem)

		for i := range lex {
			for j := range lex {
				if ns[i] <= ns[j] {
					continue
				}
				if after[i]-after[j] < before[i]-before[j]-1e-9 {
					t.Fatalf("raising the semantic weight hurt %d relative to %d", i, j)
				}
			}
		}
	})
}

func TestProperty_StableTies(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		levels := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 40).Draw(t, "levels")
		n := rapid.IntRange(0, 50).Draw(t, "n")

		cands := make([]string, len(levels))
		scores := make(ScoreVector, len(levels))
		index := make(map[string]int, len(levels))
		for i, l := range levels {
			cands[i] = fmt.Sprintf("c%03d", i)
			scores[i] = float64(l) / 2
			index[cands[i]] = i
		}

		got, err := SelectTopN(cands, scores, n)
		if err != nil {
			t.Fatal(err)
		}
		for k := 1; k < len(got); k++ {
			if got[k].Score == got[k-1].Score && index[got[k].Path] < index[got[k-1].Path] {
				t.Fatalf("tie order broken: %s before %s", got[k-1].Path, got[k].Path)
			}
		}
	})
}
