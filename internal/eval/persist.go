package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
)

// ResultFileName names the results file for the given settings, e.g.
// results_top10_lex0.6_sem0.4.json.
func ResultFileName(s Settings) string {
	return fmt.Sprintf("results_top%d_lex%s_sem%s.json", s.TopN, FormatWeight(s.WeightLexical), FormatWeight(s.WeightSemantic))
}

// FormatWeight prints a weight without trailing zeros.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// WriteResults serializes r into dir and returns the file path. The file is
// written to a temporary name and renamed into place.
func WriteResults(dir string, r *RunResult) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := r.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	path := filepath.Join(dir, ResultFileName(r.Settings))
	tmp, err := os.CreateTemp(dir, ".results-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move results into place: %w", err)
	}
	return path, nil
}

// ReadResults loads a results file written by WriteResults.
func ReadResults(path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r RunResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &r, nil
}
