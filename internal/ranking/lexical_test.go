package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a/foo.py", []string{"a", "foo", "py"}},
		{`src\Utils\Helper.JAVA`, []string{"src", "utils", "helper", "java"}},
		{"django/db/models/sql_query.py", []string{"django", "db", "models", "sql_query", "py"}},
		{"ｆｕｌｌ/width.go", []string{"full", "width", "go"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := TokenizeCandidate(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeQuery(t *testing.T) {
	assert.Equal(t, []string{"fix", "bug", "in", "foo"}, TokenizeQuery("Fix bug in foo!"))
	assert.Equal(t, []string{"queryset", "filter", "crashes"}, TokenizeQuery("QuerySet.filter() crashes"))
}

func TestLexicalScorer(t *testing.T) {
	s := NewLexicalScorer(DefaultBM25Params())
	cands := []string{"a/foo.py", "b/bar.py", "c/foo_bar.py"}

	scores := s.Score(cands, "fix bug in foo")
	assert.Len(t, scores, 3)
	assert.Greater(t, scores[0], 0.0, "candidate containing a query token scores > 0")
	assert.Equal(t, 0.0, scores[1], "no overlap scores 0")
	assert.Equal(t, 0.0, scores[2], "foo_bar is a single token")

	again := s.Score(cands, "fix bug in foo")
	assert.Equal(t, scores, again, "fresh index per call gives identical results")
}

func TestLexicalScorer_DuplicateQueryTerms(t *testing.T) {
	s := NewLexicalScorer(DefaultBM25Params())
	cands := []string{"a/foo.py", "b/bar.py"}

	once := s.Score(cands, "foo")
	twice := s.Score(cands, "foo foo")
	assert.InDelta(t, 2*once[0], twice[0], 1e-12)
}

func TestLexicalScorer_Degenerate(t *testing.T) {
	s := NewLexicalScorer(DefaultBM25Params())

	assert.Empty(t, s.Score(nil, "foo"))
	assert.Equal(t, ScoreVector{0, 0}, s.Score([]string{"///", "..."}, "foo"))
	assert.Equal(t, ScoreVector{0, 0}, s.Score([]string{"a.py", "b.py"}, ""))
}

func TestLexicalScorer_RarerTermsWeighMore(t *testing.T) {
	s := NewLexicalScorer(DefaultBM25Params())
	cands := []string{"core/models.py", "core/views.py", "core/forms.py", "other/models.py"}

	scores := s.Score(cands, "forms")
	common := s.Score(cands, "core")
	assert.Greater(t, scores[2], common[2], "a term in one document has higher idf than one in three")
}

func TestComputeIDF(t *testing.T) {
	// A term in every document still has positive idf.
	assert.Greater(t, computeIDF(3, 3), 0.0)
	assert.Greater(t, computeIDF(10, 1), computeIDF(10, 5))
}
