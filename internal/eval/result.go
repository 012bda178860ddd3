package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Status is the outcome of one entry.
type Status string

const (
	StatusHit    Status = "hit"
	StatusMiss   Status = "miss"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// EntryResult records one evaluated benchmark entry.
type EntryResult struct {
	InstanceID     string   `json:"instanceId,omitempty"`
	Repo           string   `json:"repo"`
	Commit         string   `json:"commit"`
	Patch          string   `json:"patch"`
	Issue          string   `json:"issue"`
	Predicted      []string `json:"predicted"`
	GroundTruth    []string `json:"groundTruth,omitempty"`
	Missing        []string `json:"missing,omitempty"`
	Status         Status   `json:"status"`
	Error          string   `json:"error,omitempty"`
	CandidateCount int      `json:"candidateCount"`
}

// Hit reports whether the ground-truth files were all predicted.
func (r EntryResult) Hit() bool {
	return r.Status == StatusHit
}

// RunResult aggregates one evaluation run. Results are keyed by the decimal
// entry index.
type RunResult struct {
	RunID    string                 `json:"runId"`
	Settings Settings               `json:"settings"`
	Total    int                    `json:"total"`
	Hits     int                    `json:"hits"`
	Misses   int                    `json:"misses"`
	Empty    int                    `json:"empty"`
	Failed   int                    `json:"failed"`
	Accuracy float64                `json:"accuracy"`
	Results  map[string]EntryResult `json:"results"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (r *RunResult) add(key string, er EntryResult) {
	r.Results[key] = er
	r.Total++
	switch er.Status {
	case StatusHit:
		r.Hits++
	case StatusMiss:
		r.Misses++
	case StatusEmpty:
		r.Empty++
	case StatusFailed:
		r.Failed++
	}
}

func (r *RunResult) finish() {
	r.EndTime = time.Now()
	if r.Total > 0 {
		r.Accuracy = float64(r.Hits) / float64(r.Total)
	}
}

// Keys returns the result keys in entry order.
func (r *RunResult) Keys() []string {
	keys := make([]string, 0, len(r.Results))
	for k := range r.Results {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// FormatReport generates a human-readable report.
func (r *RunResult) FormatReport() string {
	var sb strings.Builder

	sb.WriteString("=== File Localization Report ===\n\n")
	fmt.Fprintf(&sb, "Run:        %s\n", r.RunID)
	fmt.Fprintf(&sb, "Settings:   top-%d lex=%s sem=%s repr=%s\n",
		r.Settings.TopN, FormatWeight(r.Settings.WeightLexical), FormatWeight(r.Settings.WeightSemantic), r.Settings.Representation)
	if id := r.Settings.ModelID; id != "" {
		if strings.HasPrefix(id, "hash-") {
			fmt.Fprintf(&sb, "Model:      %s (feature hashing, not pretrained)\n", id)
		} else {
			fmt.Fprintf(&sb, "Model:      %s\n", id)
		}
	}
	fmt.Fprintf(&sb, "Entries:    %d\n", r.Total)
	fmt.Fprintf(&sb, "Hits:       %d (%.1f%%)\n", r.Hits, r.Accuracy*100)
	fmt.Fprintf(&sb, "Misses:     %d\n", r.Misses)
	if r.Empty > 0 {
		fmt.Fprintf(&sb, "Empty:      %d\n", r.Empty)
	}
	if r.Failed > 0 {
		fmt.Fprintf(&sb, "Failed:     %d\n", r.Failed)
	}
	fmt.Fprintf(&sb, "Duration:   %v\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))

	var misses []string
	for _, k := range r.Keys() {
		if er := r.Results[k]; er.Status != StatusHit {
			misses = append(misses, k)
		}
	}

	if len(misses) > 0 {
		sb.WriteString("\nNot localized:\n")
		for _, k := range misses {
			er := r.Results[k]
			fmt.Fprintf(&sb, "  [%s] %s %s@%s (%s)\n", k, er.InstanceID, er.Repo, shortCommit(er.Commit), er.Status)
			if len(er.Missing) > 0 {
				fmt.Fprintf(&sb, "    Missing:   %v\n", er.Missing)
			}
			if len(er.Predicted) > 0 {
				fmt.Fprintf(&sb, "    Got Top-3: %v\n", er.Predicted[:min(3, len(er.Predicted))])
			}
			if er.Error != "" {
				fmt.Fprintf(&sb, "    Error: %s\n", er.Error)
			}
		}
	}

	return sb.String()
}

// JSON returns the result as indented JSON.
func (r *RunResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
