package repos

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"filoc/internal/errors"
	"filoc/internal/paths"
)

// DefaultExclude is applied when no exclude patterns are configured.
var DefaultExclude = []string{".git/**", "**/node_modules/**"}

// ListerConfig selects candidate files. Patterns use doublestar syntax and
// match forward-slash paths relative to the listed directory.
type ListerConfig struct {
	Include          []string
	Exclude          []string
	MaxFileSizeBytes int64 // 0 = no limit
}

// Lister walks a checkout and returns candidate files.
type Lister struct {
	cfg    ListerConfig
	logger *slog.Logger
}

// NewLister validates the patterns and creates a lister. A nil Exclude
// uses DefaultExclude; an empty non-nil slice disables exclusion.
func NewLister(cfg ListerConfig, logger *slog.Logger) (*Lister, error) {
	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude
	}
	for _, p := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid glob pattern %q", p), nil)
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Lister{cfg: cfg, logger: logger}, nil
}

// List returns regular files under dir as relative forward-slash paths in
// lexical order. .git is always skipped and symlinks are not followed.
func (l *Lister) List(ctx context.Context, dir string) ([]string, error) {
	files := []string{}
	skipped := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = paths.NormalizePath(filepath.ToSlash(rel))

		if !l.accept(rel) {
			skipped++
			return nil
		}

		if l.cfg.MaxFileSizeBytes > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > l.cfg.MaxFileSizeBytes {
				skipped++
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(errors.ListingFailed, "failed to list "+dir, err)
	}

	l.logger.Debug("Listed candidate files", "dir", dir, "files", len(files), "skipped", skipped)
	return files, nil
}

func (l *Lister) accept(rel string) bool {
	for _, p := range l.cfg.Exclude {
		if doublestar.MatchUnvalidated(p, rel) {
			return false
		}
	}
	if len(l.cfg.Include) == 0 {
		return true
	}
	for _, p := range l.cfg.Include {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}
