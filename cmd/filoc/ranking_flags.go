package main

import (
	"github.com/spf13/cobra"

	"filoc/internal/config"
)

var (
	flagTopN           int
	flagWeightLexical  float64
	flagWeightSemantic float64
	flagRepresentation string
)

// addRankingFlags registers the ranking overrides shared by eval and rank.
func addRankingFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&flagTopN, "top-n", "n", 10, "Number of files to predict")
	cmd.Flags().Float64Var(&flagWeightLexical, "w-lex", 0.5, "Weight of the BM25 score")
	cmd.Flags().Float64Var(&flagWeightSemantic, "w-sem", 0.5, "Weight of the embedding score")
	cmd.Flags().StringVar(&flagRepresentation, "repr", "path", "Candidate representation (path, content)")
}

// applyRankingFlags copies explicitly set flags over the configured values.
func applyRankingFlags(cmd *cobra.Command, r *config.RankingConfig) {
	flags := cmd.Flags()
	if flags.Changed("top-n") {
		r.TopN = flagTopN
	}
	if flags.Changed("w-lex") {
		r.WeightLexical = flagWeightLexical
	}
	if flags.Changed("w-sem") {
		r.WeightSemantic = flagWeightSemantic
	}
	if flags.Changed("repr") {
		r.Representation = flagRepresentation
	}
}
