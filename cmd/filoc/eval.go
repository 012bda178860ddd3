package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"filoc/internal/config"
	"filoc/internal/dataset"
	"filoc/internal/diff"
	"filoc/internal/errors"
	"filoc/internal/eval"
	"filoc/internal/storage"
)

var (
	evalDataset    string
	evalOutput     string
	evalLimit      int
	evalInstances  []string
	evalFailFast   bool
	evalGitTimeout int
	evalWorkspace  string
	evalFormat     string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate file localization on a benchmark dataset",
	Long: `Run the ranking pipeline over every entry of a SWE-bench style dataset.

For each entry the repository is checked out at its base commit, its files
are ranked against the problem statement, and the entry counts as a hit when
every file touched by the reference patch is among the top N predictions.

Datasets may be .json, .jsonl, .yaml or .yml, optionally zstd-compressed (.zst).

Examples:
  filoc eval --dataset swe-bench-lite.jsonl
  filoc eval --dataset lite.json.zst --top-n 5 --w-lex 0.7 --w-sem 0.3
  filoc eval --dataset lite.jsonl --instance django__django-11099 --format json
  filoc eval --dataset lite.jsonl --fail-fast=false --repr content`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "Path to the benchmark dataset")
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", "", "Directory for the results file (default: eval.outputDir)")
	evalCmd.Flags().IntVar(&evalLimit, "limit", 0, "Evaluate at most this many entries (0 = all)")
	evalCmd.Flags().StringSliceVar(&evalInstances, "instance", nil, "Only evaluate these instance IDs (repeatable)")
	evalCmd.Flags().BoolVar(&evalFailFast, "fail-fast", true, "Abort on the first entry that cannot be evaluated")
	evalCmd.Flags().IntVar(&evalGitTimeout, "git-timeout", 0, "Timeout in seconds for each git command")
	evalCmd.Flags().StringVar(&evalWorkspace, "workspace", "", "Directory for repository checkouts")
	evalCmd.Flags().StringVar(&evalFormat, "format", "human", "Output format (human, json)")
	addRankingFlags(evalCmd)
	_ = evalCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	cfg := a.cfg
	applyEvalFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return errors.New(errors.ConfigInvalid, "invalid settings", err)
	}

	entries, err := dataset.Load(evalDataset, dataset.Options{Limit: evalLimit, InstanceIDs: evalInstances})
	if err != nil {
		return err
	}
	a.logger.Info("Loaded dataset", "path", evalDataset, "entries", len(entries))

	lister, err := a.lister()
	if err != nil {
		return err
	}

	ev := eval.NewEvaluator(a.snapshotter(), lister, diff.NewGitDiffParser(), a.ranker(), evalSettings(cfg),
		eval.WithFailFast(cfg.Eval.FailFast),
		eval.WithLogger(a.logger),
	)

	ctx, stop := newContext()
	defer stop()

	result, err := ev.Run(ctx, entries)
	if err != nil {
		return err
	}
	if emb, err := a.provider.Get(); err == nil {
		result.Settings.ModelID = emb.ModelID()
	}

	path, err := eval.WriteResults(cfg.Eval.OutputDir, result)
	if err != nil {
		return err
	}
	a.recordRun(result, evalDataset, path)

	if evalFormat == "json" {
		data, err := result.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.FormatReport())
	fmt.Fprintf(out, "Results written to %s\n", path)
	return nil
}

// applyEvalFlags copies explicitly set flags over the configuration.
func applyEvalFlags(cmd *cobra.Command, cfg *config.Config) {
	applyRankingFlags(cmd, &cfg.Ranking)

	flags := cmd.Flags()
	if flags.Changed("fail-fast") {
		cfg.Eval.FailFast = evalFailFast
	}
	if flags.Changed("git-timeout") {
		cfg.Workspace.GitTimeoutSeconds = evalGitTimeout
	}
	if evalWorkspace != "" {
		cfg.Workspace.Dir = evalWorkspace
	}
	if evalOutput != "" {
		cfg.Eval.OutputDir = evalOutput
	}
}

func evalSettings(cfg *config.Config) eval.Settings {
	r := cfg.Ranking
	return eval.Settings{
		TopN:            r.TopN,
		WeightLexical:   r.WeightLexical,
		WeightSemantic:  r.WeightSemantic,
		Representation:  r.Representation,
		MaxContentBytes: r.MaxContentBytes,
	}
}

// recordRun stores a run summary in the history table. Failures are logged
// and do not fail the command.
func (a *appState) recordRun(r *eval.RunResult, datasetPath, resultsPath string) {
	db, err := a.database()
	if err != nil {
		a.logger.Warn("Run history unavailable", "error", err.Error())
		return
	}

	if abs, err := filepath.Abs(datasetPath); err == nil {
		datasetPath = abs
	}
	if abs, err := filepath.Abs(resultsPath); err == nil {
		resultsPath = abs
	}

	err = storage.NewRunStore(db).Record(storage.RunRecord{
		RunID:          r.RunID,
		Dataset:        datasetPath,
		TopN:           r.Settings.TopN,
		WeightLexical:  r.Settings.WeightLexical,
		WeightSemantic: r.Settings.WeightSemantic,
		Representation: r.Settings.Representation,
		ModelID:        r.Settings.ModelID,
		Total:          r.Total,
		Hits:           r.Hits,
		Accuracy:       r.Accuracy,
		ResultsPath:    resultsPath,
		StartedAt:      r.StartTime,
		FinishedAt:     r.EndTime,
	})
	if err != nil {
		a.logger.Warn("Failed to record run", "run", r.RunID, "error", err.Error())
	}
}
