// Package dataset loads benchmark entries (SWE-bench style) from JSON,
// JSONL or YAML files, optionally zstd-compressed.
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"filoc/internal/errors"
)

// Entry is one benchmark task: an issue against a repository at a commit,
// plus the patch that resolved it.
type Entry struct {
	InstanceID       string `json:"instance_id" yaml:"instance_id"`
	Repo             string `json:"repo" yaml:"repo"`
	BaseCommit       string `json:"base_commit" yaml:"base_commit"`
	ProblemStatement string `json:"problem_statement" yaml:"problem_statement"`
	Patch            string `json:"patch" yaml:"patch"`
}

// Options filters loaded entries.
type Options struct {
	// Limit keeps at most this many entries after filtering; 0 = all.
	Limit int
	// InstanceIDs keeps only the listed instances, in file order.
	InstanceIDs []string
}

// Load reads entries from path. The format is taken from the extension:
// .json (array), .jsonl, .yaml or .yml, each optionally followed by .zst.
func Load(path string, opts Options) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.DatasetInvalid, "cannot open dataset", err).
			WithDetails(map[string]string{"path": path})
	}
	defer f.Close()

	name := strings.ToLower(filepath.Base(path))
	var r io.Reader = f
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.New(errors.DatasetInvalid, "cannot open zstd stream", err)
		}
		defer dec.Close()
		r = dec
		name = strings.TrimSuffix(name, ".zst")
	}

	entries, err := Decode(r, filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	return Filter(entries, opts), nil
}

// Decode parses entries in the format named by ext (".json", ".jsonl",
// ".yaml", ".yml") and validates them.
func Decode(r io.Reader, ext string) ([]Entry, error) {
	var entries []Entry
	var err error

	switch ext {
	case ".json":
		entries, err = decodeJSON(r)
	case ".jsonl", ".ndjson":
		entries, err = decodeJSONL(r)
	case ".yaml", ".yml":
		entries, err = decodeYAML(r)
	default:
		return nil, errors.New(errors.DatasetInvalid, fmt.Sprintf("unsupported dataset format %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Validate rejects entries without a repository or base commit.
func Validate(entries []Entry) error {
	for i, e := range entries {
		if strings.TrimSpace(e.Repo) == "" {
			return errors.New(errors.DatasetInvalid, fmt.Sprintf("entry %d (%s) has no repo", i, e.InstanceID), nil)
		}
		if strings.TrimSpace(e.BaseCommit) == "" {
			return errors.New(errors.DatasetInvalid, fmt.Sprintf("entry %d (%s) has no base_commit", i, e.InstanceID), nil)
		}
	}
	return nil
}

// Filter applies opts and returns a new slice.
func Filter(entries []Entry, opts Options) []Entry {
	out := make([]Entry, 0, len(entries))

	var want map[string]bool
	if len(opts.InstanceIDs) > 0 {
		want = make(map[string]bool, len(opts.InstanceIDs))
		for _, id := range opts.InstanceIDs {
			want[id] = true
		}
	}

	for _, e := range entries {
		if want != nil && !want[e.InstanceID] {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

func decodeJSON(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.New(errors.DatasetInvalid, "invalid JSON dataset", err)
	}
	return entries, nil
}

func decodeJSONL(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	// Patches and issue texts can be large.
	sc.Buffer(make([]byte, 0, 1<<20), 64<<20)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.New(errors.DatasetInvalid, fmt.Sprintf("invalid JSON on line %d", line), err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.DatasetInvalid, "failed to read JSONL dataset", err)
	}
	return entries, nil
}

func decodeYAML(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return []Entry{}, nil
		}
		return nil, errors.New(errors.DatasetInvalid, "invalid YAML dataset", err)
	}
	return entries, nil
}
