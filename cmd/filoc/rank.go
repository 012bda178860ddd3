package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"filoc/internal/errors"
	"filoc/internal/ranking"
)

var (
	rankDir       string
	rankQuery     string
	rankQueryFile string
	rankFormat    string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the files of a directory against an issue description",
	Long: `Rank every candidate file below a directory by relevance to a query and
print the top N.

Examples:
  filoc rank --query "UsernameValidator allows trailing newline"
  filoc rank --dir ~/src/django --query-file issue.txt --top-n 5
  filoc rank --query "fix bug in foo" --repr content --format json`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankDir, "dir", ".", "Directory whose files are ranked")
	rankCmd.Flags().StringVar(&rankQuery, "query", "", "Issue text")
	rankCmd.Flags().StringVar(&rankQueryFile, "query-file", "", "Read the issue text from a file (- for stdin)")
	rankCmd.Flags().StringVar(&rankFormat, "format", "human", "Output format (human, json)")
	addRankingFlags(rankCmd)
	rankCmd.MarkFlagsMutuallyExclusive("query", "query-file")
	rankCmd.MarkFlagsOneRequired("query", "query-file")
	rootCmd.AddCommand(rankCmd)
}

// RankResponseCLI is the output of the rank command
type RankResponseCLI struct {
	Dir            string             `json:"dir"`
	Query          string             `json:"query"`
	TopN           int                `json:"topN"`
	WeightLexical  float64            `json:"weightLexical"`
	WeightSemantic float64            `json:"weightSemantic"`
	Representation string             `json:"representation"`
	Candidates     int                `json:"candidates"`
	Results        ranking.RankedList `json:"results"`
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	applyRankingFlags(cmd, &a.cfg.Ranking)
	if err := a.cfg.Validate(); err != nil {
		return errors.New(errors.ConfigInvalid, "invalid settings", err)
	}
	r := a.cfg.Ranking

	query, err := readQuery(cmd)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(rankDir)
	if err != nil {
		return err
	}

	lister, err := a.lister()
	if err != nil {
		return err
	}

	ctx, stop := newContext()
	defer stop()

	candidates, err := lister.List(ctx, dir)
	if err != nil {
		return err
	}

	repr, err := ranking.RepresentationByName(r.Representation, dir, r.MaxContentBytes, ranking.WithContentLogger(a.logger))
	if err != nil {
		return err
	}

	weights := ranking.Weights{Lexical: r.WeightLexical, Semantic: r.WeightSemantic}
	ranked, err := a.ranker().Rank(ctx, candidates, query, repr, r.TopN, weights)
	if err != nil {
		return err
	}

	resp := &RankResponseCLI{
		Dir:            dir,
		Query:          query,
		TopN:           r.TopN,
		WeightLexical:  r.WeightLexical,
		WeightSemantic: r.WeightSemantic,
		Representation: repr.Name(),
		Candidates:     len(candidates),
		Results:        ranked,
	}

	out, err := FormatResponse(resp, OutputFormat(rankFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readQuery(cmd *cobra.Command) (string, error) {
	query := rankQuery
	if rankQueryFile != "" {
		var data []byte
		var err error
		if rankQueryFile == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(rankQueryFile)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read query: %w", err)
		}
		query = string(data)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New(errors.ConfigInvalid, "query is empty", nil)
	}
	return query, nil
}
