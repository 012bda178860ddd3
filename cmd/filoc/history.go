package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filoc/internal/storage"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded evaluation runs",
	Long: `Show the evaluation runs recorded in the filoc database, newest first.

Examples:
  filoc history
  filoc history --limit 5 --format json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 = all)")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(historyCmd)
}

// HistoryResponseCLI is the output of the history command
type HistoryResponseCLI struct {
	Runs []storage.RunRecord `json:"runs"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	db, err := a.database()
	if err != nil {
		return err
	}

	runs, err := storage.NewRunStore(db).List(historyLimit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}

	out, err := FormatResponse(&HistoryResponseCLI{Runs: runs}, OutputFormat(historyFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
