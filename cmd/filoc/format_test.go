package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filoc/internal/diff"
	"filoc/internal/ranking"
	"filoc/internal/storage"
)

func TestFormatResponse_Rank(t *testing.T) {
	resp := &RankResponseCLI{
		Dir:            "/src/app",
		Query:          "fix bug in foo",
		TopN:           2,
		WeightLexical:  0.6,
		WeightSemantic: 0.4,
		Representation: "path",
		Candidates:     3,
		Results: ranking.RankedList{
			{Path: "a/foo.py", Score: 1, Lexical: 1, Semantic: 1},
			{Path: "b/bar.py", Score: 0.05, Lexical: 0, Semantic: 0.125},
		},
	}

	human, err := FormatResponse(resp, FormatHuman)
	require.NoError(t, err)
	assert.Contains(t, human, "Top 2 of 3 candidates in /src/app")
	assert.Contains(t, human, "Weights: lex=0.6 sem=0.4  Representation: path")
	assert.Contains(t, human, "1. 1.0000  a/foo.py  (lex 1.000, sem 1.000)")
	assert.Contains(t, human, "2. 0.0500  b/bar.py  (lex 0.000, sem 0.125)")

	js, err := FormatResponse(resp, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, js, `"path": "a/foo.py"`)
	assert.Contains(t, js, `"candidates": 3`)
}

func TestFormatResponse_RankEmpty(t *testing.T) {
	human, err := FormatResponse(&RankResponseCLI{Dir: "/x", Results: ranking.RankedList{}}, FormatHuman)
	require.NoError(t, err)
	assert.Contains(t, human, "(no results)")
}

func TestFormatResponse_Changed(t *testing.T) {
	resp := &ChangedResponseCLI{Files: []string{"a.go", "b.go"}}

	human, err := FormatResponse(resp, FormatHuman)
	require.NoError(t, err)
	assert.Equal(t, "a.go\nb.go", human)

	resp.Details = []diff.ChangedFile{{OldPath: "x.go", NewPath: "y.go", Renamed: true}}
	human, err = FormatResponse(resp, FormatHuman)
	require.NoError(t, err)
	assert.Equal(t, "R x.go -> y.go (+0 -0)", human)
}

func TestFormatResponse_History(t *testing.T) {
	empty, err := FormatResponse(&HistoryResponseCLI{}, FormatHuman)
	require.NoError(t, err)
	assert.Equal(t, "No evaluation runs recorded.", empty)

	resp := &HistoryResponseCLI{Runs: []storage.RunRecord{{
		RunID:          "3f2a9c4e-1111-2222-3333-444455556666",
		Dataset:        "/data/lite.jsonl",
		TopN:           10,
		WeightLexical:  0.5,
		WeightSemantic: 0.5,
		Representation: "path",
		Total:          300,
		Hits:           87,
		StartedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local),
	}}}
	human, err := FormatResponse(resp, FormatHuman)
	require.NoError(t, err)

	lines := strings.Split(human, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "STARTED")
	assert.Contains(t, lines[1], "2026-03-01 12:00:00")
	assert.Contains(t, lines[1], "3f2a9c4e ")
	assert.Contains(t, lines[1], "0.5/0.5")
	assert.Contains(t, lines[1], "87/300")
	assert.Contains(t, lines[1], "/data/lite.jsonl")
}

func TestFormatResponse_Unsupported(t *testing.T) {
	_, err := FormatResponse(&ChangedResponseCLI{}, OutputFormat("xml"))
	assert.EqualError(t, err, "unsupported format: xml")
}

func TestFormatResponse_UnknownTypeFallsBackToJSON(t *testing.T) {
	out, err := FormatResponse(map[string]int{"a": 1}, FormatHuman)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}
