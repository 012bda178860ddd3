package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"filoc/internal/diff"
)

var (
	changedPatch  string
	changedStat   bool
	changedFormat string
)

var changedCmd = &cobra.Command{
	Use:   "changed",
	Short: "List the files a patch modifies",
	Long: `Print the ground-truth changed-file set of a unified diff: the paths an
evaluation expects among the predictions.

Examples:
  filoc changed --patch fix.diff
  git diff HEAD~1 | filoc changed --patch - --stat`,
	RunE: runChanged,
}

func init() {
	changedCmd.Flags().StringVarP(&changedPatch, "patch", "p", "", "Patch file (- for stdin)")
	changedCmd.Flags().BoolVar(&changedStat, "stat", false, "Show change kind and line counts")
	changedCmd.Flags().StringVar(&changedFormat, "format", "human", "Output format (human, json)")
	_ = changedCmd.MarkFlagRequired("patch")
	rootCmd.AddCommand(changedCmd)
}

// ChangedResponseCLI is the output of the changed command
type ChangedResponseCLI struct {
	Files   []string           `json:"files"`
	Details []diff.ChangedFile `json:"details,omitempty"`
}

func runChanged(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if changedPatch == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(changedPatch)
	}
	if err != nil {
		return fmt.Errorf("failed to read patch: %w", err)
	}

	parsed, err := diff.NewGitDiffParser().Parse(string(data))
	if err != nil {
		return err
	}

	resp := &ChangedResponseCLI{Files: parsed.Paths()}
	if changedStat {
		resp.Details = parsed.Files
	}

	out, err := FormatResponse(resp, OutputFormat(changedFormat))
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}
