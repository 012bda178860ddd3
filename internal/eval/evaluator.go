// Package eval measures file localization quality: for each benchmark
// entry it ranks the repository's files against the issue text and checks
// whether the files touched by the reference patch all made the top N.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"filoc/internal/dataset"
	"filoc/internal/ranking"
)

// SnapshotProvider materializes a repository at a commit and returns the
// local directory.
type SnapshotProvider interface {
	Checkout(ctx context.Context, repo, commit string) (string, error)
}

// FileLister returns the candidate files below dir.
type FileLister interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// PatchParser extracts the files a unified diff modifies.
type PatchParser interface {
	ChangedFiles(patch string) ([]string, error)
}

// Ranker orders candidates by relevance to a query.
type Ranker interface {
	Rank(ctx context.Context, paths []string, query string, repr ranking.Representation, n int, w ranking.Weights) (ranking.RankedList, error)
}

// Settings are the ranking parameters of one run.
type Settings struct {
	TopN            int     `json:"topN"`
	WeightLexical   float64 `json:"weightLexical"`
	WeightSemantic  float64 `json:"weightSemantic"`
	Representation  string  `json:"representation"`
	MaxContentBytes int64   `json:"maxContentBytes,omitempty"`
	ModelID         string  `json:"modelId,omitempty"`
}

// Weights returns the settings' weight pair.
func (s Settings) Weights() ranking.Weights {
	return ranking.Weights{Lexical: s.WeightLexical, Semantic: s.WeightSemantic}
}

// Evaluator drives the ranking pipeline over benchmark entries.
type Evaluator struct {
	snapshots SnapshotProvider
	lister    FileLister
	patches   PatchParser
	ranker    Ranker
	settings  Settings
	failFast  bool
	logger    *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithFailFast controls whether the first entry failure aborts the run.
// When false, failed entries are recorded and the run continues.
func WithFailFast(failFast bool) EvaluatorOption {
	return func(e *Evaluator) { e.failFast = failFast }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates an evaluator. Fail-fast is on by default.
func NewEvaluator(snapshots SnapshotProvider, lister FileLister, patches PatchParser, ranker Ranker, settings Settings, opts ...EvaluatorOption) *Evaluator {
	if settings.Representation == "" {
		settings.Representation = "path"
	}
	e := &Evaluator{
		snapshots: snapshots,
		lister:    lister,
		patches:   patches,
		ranker:    ranker,
		settings:  settings,
		failFast:  true,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Settings returns the run settings.
func (e *Evaluator) Settings() Settings {
	return e.settings
}

// Run evaluates entries in order. Every call starts from fresh counters.
// With fail-fast, the first entry error is returned wrapped with the entry
// index and no result is produced.
func (e *Evaluator) Run(ctx context.Context, entries []dataset.Entry) (*RunResult, error) {
	if err := e.settings.Weights().Validate(); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		Settings:  e.settings,
		Results:   make(map[string]EntryResult, len(entries)),
		StartTime: time.Now(),
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		er, err := e.evaluateEntry(ctx, entry)
		if err != nil {
			if e.failFast || ctx.Err() != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, entry.InstanceID, err)
			}
			e.logger.Warn("Entry failed",
				"index", i,
				"instance", entry.InstanceID,
				"repo", entry.Repo,
				"error", err.Error(),
			)
			er.Status = StatusFailed
			er.Error = err.Error()
		}

		result.add(strconv.Itoa(i), er)
		e.logger.Info("Evaluated entry",
			"index", i,
			"instance", entry.InstanceID,
			"status", string(er.Status),
			"candidates", er.CandidateCount,
		)
	}

	result.finish()
	return result, nil
}

// evaluateEntry runs checkout, listing, ranking and patch parsing for one
// entry. The partially filled EntryResult is returned alongside any error.
func (e *Evaluator) evaluateEntry(ctx context.Context, entry dataset.Entry) (EntryResult, error) {
	er := EntryResult{
		InstanceID: entry.InstanceID,
		Repo:       entry.Repo,
		Commit:     entry.BaseCommit,
		Patch:      entry.Patch,
		Issue:      entry.ProblemStatement,
		Predicted:  []string{},
	}

	dir, err := e.snapshots.Checkout(ctx, entry.Repo, entry.BaseCommit)
	if err != nil {
		return er, err
	}

	candidates, err := e.lister.List(ctx, dir)
	if err != nil {
		return er, err
	}
	er.CandidateCount = len(candidates)

	repr, err := ranking.RepresentationByName(e.settings.Representation, dir, e.settings.MaxContentBytes,
		ranking.WithContentLogger(e.logger))
	if err != nil {
		return er, err
	}

	ranked, err := e.ranker.Rank(ctx, candidates, entry.ProblemStatement, repr, e.settings.TopN, e.settings.Weights())
	if err != nil {
		return er, err
	}
	er.Predicted = ranked.Paths()

	truth, err := e.patches.ChangedFiles(entry.Patch)
	if err != nil {
		return er, err
	}
	if truth == nil {
		truth = []string{}
	}
	er.GroundTruth = truth

	switch {
	case len(candidates) == 0:
		er.Status = StatusEmpty
		er.Missing = Missing(truth, er.Predicted)
	case IsSubset(truth, er.Predicted):
		er.Status = StatusHit
	default:
		er.Status = StatusMiss
		er.Missing = Missing(truth, er.Predicted)
	}
	return er, nil
}
