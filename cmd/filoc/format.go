package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"filoc/internal/eval"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman, "":
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *RankResponseCLI:
		return formatRankHuman(v), nil
	case *ChangedResponseCLI:
		return formatChangedHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatRankHuman(resp *RankResponseCLI) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Top %d of %d candidates in %s\n", len(resp.Results), resp.Candidates, resp.Dir)
	fmt.Fprintf(&b, "Weights: lex=%s sem=%s  Representation: %s\n",
		eval.FormatWeight(resp.WeightLexical), eval.FormatWeight(resp.WeightSemantic), resp.Representation)
	b.WriteString(strings.Repeat("─", 60) + "\n")

	if len(resp.Results) == 0 {
		b.WriteString("  (no results)\n")
		return strings.TrimRight(b.String(), "\n")
	}

	width := len(fmt.Sprint(len(resp.Results)))
	for i, s := range resp.Results {
		fmt.Fprintf(&b, "%*d. %.4f  %s  (lex %.3f, sem %.3f)\n", width, i+1, s.Score, s.Path, s.Lexical, s.Semantic)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatChangedHuman(resp *ChangedResponseCLI) string {
	if len(resp.Details) > 0 {
		lines := make([]string, len(resp.Details))
		for i := range resp.Details {
			lines[i] = resp.Details[i].String()
		}
		return strings.Join(lines, "\n")
	}
	return strings.Join(resp.Files, "\n")
}

func formatHistoryHuman(resp *HistoryResponseCLI) string {
	if len(resp.Runs) == 0 {
		return "No evaluation runs recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s  %-8s  %5s  %-13s  %-7s  %9s  %s\n", "STARTED", "RUN", "TOP", "WEIGHTS", "REPR", "HITS", "DATASET")
	for _, r := range resp.Runs {
		fmt.Fprintf(&b, "%-20s  %-8s  %5d  %-13s  %-7s  %9s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(r.RunID),
			r.TopN,
			fmt.Sprintf("%s/%s", eval.FormatWeight(r.WeightLexical), eval.FormatWeight(r.WeightSemantic)),
			r.Representation,
			fmt.Sprintf("%d/%d", r.Hits, r.Total),
			r.Dataset,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
