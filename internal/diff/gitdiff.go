// Package diff extracts changed files from unified git diffs.
package diff

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"filoc/internal/errors"
)

// ParsedDiff is a parsed multi-file diff
type ParsedDiff struct {
	Files []ChangedFile `json:"files"`
}

// ChangedFile is one file section of a diff
type ChangedFile struct {
	OldPath string        `json:"oldPath,omitempty"`
	NewPath string        `json:"newPath,omitempty"`
	IsNew   bool          `json:"isNew,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
	Renamed bool          `json:"renamed,omitempty"`
	Hunks   []ChangedHunk `json:"hunks,omitempty"`
}

// ChangedHunk is one @@ section; Added and Removed hold line numbers
type ChangedHunk struct {
	OldStart int   `json:"oldStart"`
	OldLines int   `json:"oldLines"`
	NewStart int   `json:"newStart"`
	NewLines int   `json:"newLines"`
	Added    []int `json:"added"`
	Removed  []int `json:"removed"`
}

// GitDiffParser parses unified git diffs into structured data
type GitDiffParser struct{}

// NewGitDiffParser creates a new GitDiffParser
func NewGitDiffParser() *GitDiffParser {
	return &GitDiffParser{}
}

// Parse parses a unified diff string into a ParsedDiff
func (p *GitDiffParser) Parse(diffContent string) (*ParsedDiff, error) {
	if strings.TrimSpace(diffContent) == "" {
		return &ParsedDiff{Files: []ChangedFile{}}, nil
	}

	// Parse using go-diff
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffContent))
	if err != nil {
		return nil, errors.New(errors.PatchInvalid, "failed to parse diff", err)
	}

	result := &ParsedDiff{
		Files: make([]ChangedFile, 0, len(fileDiffs)),
	}
	for _, fd := range fileDiffs {
		result.Files = append(result.Files, p.parseFileDiff(fd))
	}

	return result, nil
}

// ChangedFiles returns the effective path of every file the diff touches,
// de-duplicated, in diff order. It satisfies the evaluator's patch parser.
func (p *GitDiffParser) ChangedFiles(patch string) ([]string, error) {
	parsed, err := p.Parse(patch)
	if err != nil {
		return nil, err
	}
	return parsed.Paths(), nil
}

// Paths returns the de-duplicated effective paths in diff order
func (d *ParsedDiff) Paths() []string {
	seen := make(map[string]bool, len(d.Files))
	out := make([]string, 0, len(d.Files))
	for i := range d.Files {
		path := GetEffectivePath(&d.Files[i])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// parseFileDiff converts a go-diff FileDiff to our ChangedFile
func (p *GitDiffParser) parseFileDiff(fd *godiff.FileDiff) ChangedFile {
	cf := ChangedFile{
		OldPath: cleanPath(fd.OrigName),
		NewPath: cleanPath(fd.NewName),
		Hunks:   make([]ChangedHunk, 0, len(fd.Hunks)),
	}

	// Detect file status
	if fd.OrigName == "/dev/null" || fd.OrigName == "" {
		cf.IsNew = true
		cf.OldPath = ""
	}
	if fd.NewName == "/dev/null" || fd.NewName == "" {
		cf.Deleted = true
		cf.NewPath = ""
	}
	if cf.OldPath != "" && cf.NewPath != "" && cf.OldPath != cf.NewPath {
		cf.Renamed = true
	}

	// Parse hunks
	for _, hunk := range fd.Hunks {
		cf.Hunks = append(cf.Hunks, p.parseHunk(hunk))
	}

	return cf
}

// parseHunk converts a go-diff Hunk to our ChangedHunk
func (p *GitDiffParser) parseHunk(hunk *godiff.Hunk) ChangedHunk {
	ch := ChangedHunk{
		OldStart: int(hunk.OrigStartLine),
		OldLines: int(hunk.OrigLines),
		NewStart: int(hunk.NewStartLine),
		NewLines: int(hunk.NewLines),
		Added:    make([]int, 0),
		Removed:  make([]int, 0),
	}

	// Walk the hunk body to find added/removed lines
	oldLine := int(hunk.OrigStartLine)
	newLine := int(hunk.NewStartLine)

	for _, line := range strings.Split(strings.TrimSuffix(string(hunk.Body), "\n"), "\n") {
		if len(line) == 0 {
			// Empty line in diff body is a context line
			oldLine++
			newLine++
			continue
		}

		switch line[0] {
		case '+':
			ch.Added = append(ch.Added, newLine)
			newLine++
		case '-':
			ch.Removed = append(ch.Removed, oldLine)
			oldLine++
		case ' ':
			// Context line, both advance
			oldLine++
			newLine++
		case '\\':
			// "\ No newline at end of file", ignore
		}
	}

	return ch
}

// cleanPath removes the a/ or b/ prefix from git diff paths
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return path
	}
	// Remove a/ or b/ prefix
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

// ParseGitDiff is a convenience function to parse a git diff string
func ParseGitDiff(diffContent string) (*ParsedDiff, error) {
	return NewGitDiffParser().Parse(diffContent)
}

// ChangedFiles parses patch and returns the changed-file list
func ChangedFiles(patch string) ([]string, error) {
	return NewGitDiffParser().ChangedFiles(patch)
}

// GetEffectivePath returns the most relevant path for a changed file
func GetEffectivePath(cf *ChangedFile) string {
	if cf.Deleted {
		return cf.OldPath
	}
	return cf.NewPath
}

// Stats returns the number of added and removed lines
func (cf *ChangedFile) Stats() (added, removed int) {
	for _, h := range cf.Hunks {
		added += len(h.Added)
		removed += len(h.Removed)
	}
	return added, removed
}

// String renders a one-line summary such as "M foo.go (+1 -0)"
func (cf *ChangedFile) String() string {
	status := "M"
	switch {
	case cf.IsNew:
		status = "A"
	case cf.Deleted:
		status = "D"
	case cf.Renamed:
		status = "R"
	}
	added, removed := cf.Stats()
	if cf.Renamed {
		return fmt.Sprintf("%s %s -> %s (+%d -%d)", status, cf.OldPath, cf.NewPath, added, removed)
	}
	return fmt.Sprintf("%s %s (+%d -%d)", status, GetEffectivePath(cf), added, removed)
}
