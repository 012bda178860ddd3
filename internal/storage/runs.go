package storage

import (
	"fmt"
	"time"
)

// RunRecord summarizes one evaluation run
type RunRecord struct {
	RunID          string    `json:"runId"`
	Dataset        string    `json:"dataset"`
	TopN           int       `json:"topN"`
	WeightLexical  float64   `json:"weightLexical"`
	WeightSemantic float64   `json:"weightSemantic"`
	Representation string    `json:"representation"`
	ModelID        string    `json:"modelId,omitempty"`
	Total          int       `json:"total"`
	Hits           int       `json:"hits"`
	Accuracy       float64   `json:"accuracy"`
	ResultsPath    string    `json:"resultsPath,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// RunStore keeps the history of evaluation runs
type RunStore struct {
	db *DB
}

// NewRunStore creates a run history store
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Record inserts a run summary
func (s *RunStore) Record(r RunRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO eval_runs (
			run_id, dataset, top_n, weight_lexical, weight_semantic, representation,
			model_id, total, hits, accuracy, results_path, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID, r.Dataset, r.TopN, r.WeightLexical, r.WeightSemantic, r.Representation,
		r.ModelID, r.Total, r.Hits, r.Accuracy, r.ResultsPath,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *RunStore) List(limit int) ([]RunRecord, error) {
	query := `
		SELECT run_id, dataset, top_n, weight_lexical, weight_semantic, representation,
		       model_id, total, hits, accuracy, COALESCE(results_path, ''), started_at, finished_at
		FROM eval_runs
		ORDER BY started_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(
			&r.RunID, &r.Dataset, &r.TopN, &r.WeightLexical, &r.WeightSemantic, &r.Representation,
			&r.ModelID, &r.Total, &r.Hits, &r.Accuracy, &r.ResultsPath, &started, &finished,
		); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
