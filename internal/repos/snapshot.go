// Package repos materializes benchmark repositories at a commit and lists
// their candidate files.
package repos

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"filoc/internal/errors"
	"filoc/internal/paths"
)

// DefaultGitTimeout bounds a single git invocation.
const DefaultGitTimeout = 5 * time.Minute

// DefaultCloneURL is the clone URL template; {repo} is replaced with "owner/name".
const DefaultCloneURL = "https://github.com/{repo}.git"

// SnapshotConfig configures a Snapshotter.
type SnapshotConfig struct {
	WorkspaceDir string
	CloneURL     string
	GitTimeout   time.Duration
	// Clean removes untracked and ignored files after checkout.
	Clean bool
}

// Snapshotter keeps one working copy per repository under WorkspaceDir and
// moves it to the requested commit on demand.
type Snapshotter struct {
	cfg    SnapshotConfig
	logger *slog.Logger
}

// NewSnapshotter creates a snapshotter. Zero values fall back to defaults.
func NewSnapshotter(cfg SnapshotConfig, logger *slog.Logger) *Snapshotter {
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = paths.DefaultWorkspaceDir()
	}
	if cfg.CloneURL == "" {
		cfg.CloneURL = DefaultCloneURL
	}
	if cfg.GitTimeout <= 0 {
		cfg.GitTimeout = DefaultGitTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Snapshotter{cfg: cfg, logger: logger}
}

// CloneURL expands the clone URL template for repo.
func (s *Snapshotter) CloneURL(repo string) string {
	return strings.ReplaceAll(s.cfg.CloneURL, "{repo}", repo)
}

// CheckoutDir returns the working copy directory for repo.
func (s *Snapshotter) CheckoutDir(repo string) string {
	return filepath.Join(s.cfg.WorkspaceDir, paths.CheckoutDirName(repo))
}

// Checkout makes the working copy of repo match commit and returns its
// directory. Concurrent callers for the same repo are serialized.
func (s *Snapshotter) Checkout(ctx context.Context, repo, commit string) (string, error) {
	if strings.TrimSpace(repo) == "" {
		return "", errors.New(errors.RepoUnavailable, "empty repository identifier", nil)
	}
	if strings.TrimSpace(commit) == "" {
		return "", errors.New(errors.CheckoutFailed, "empty commit for "+repo, nil)
	}

	dir := s.CheckoutDir(repo)
	lock, err := acquireLock(dir + ".lock")
	if err != nil {
		return "", errors.New(errors.CheckoutFailed, "failed to lock checkout directory", err).
			WithDetails(map[string]string{"checkout_dir": dir})
	}
	defer func() { _ = lock.Release() }()

	if !isGitDir(dir) {
		if err := s.clone(ctx, repo, dir); err != nil {
			return "", err
		}
	}

	if _, err := s.git(ctx, dir, errors.CheckoutFailed, "cat-file", "-e", commit+"^{commit}"); err != nil {
		s.logger.Info("Fetching missing commit", "repo", repo, "commit", commit)
		if _, err := s.git(ctx, dir, errors.CheckoutFailed, "fetch", "--quiet", "origin", commit); err != nil {
			if _, err := s.git(ctx, dir, errors.CheckoutFailed, "fetch", "--quiet", "--tags", "origin"); err != nil {
				return "", err
			}
		}
	}

	if _, err := s.git(ctx, dir, errors.CheckoutFailed, "checkout", "--quiet", "--force", "--detach", commit); err != nil {
		return "", err
	}

	if s.cfg.Clean {
		if _, err := s.git(ctx, dir, errors.CheckoutFailed, "clean", "-fdxq"); err != nil {
			return "", err
		}
	}

	s.logger.Debug("Checked out snapshot", "repo", repo, "commit", commit, "dir", dir)
	return dir, nil
}

func (s *Snapshotter) clone(ctx context.Context, repo, dir string) error {
	if err := os.MkdirAll(s.cfg.WorkspaceDir, 0755); err != nil {
		return errors.New(errors.RepoUnavailable, "failed to create workspace directory", err)
	}
	// A partial directory from an interrupted clone would make git refuse.
	if err := os.RemoveAll(dir); err != nil {
		return errors.New(errors.RepoUnavailable, "failed to reset checkout directory", err)
	}

	url := s.CloneURL(repo)
	s.logger.Info("Cloning repository", "repo", repo, "url", url)

	if _, err := s.git(ctx, s.cfg.WorkspaceDir, errors.RepoUnavailable, "clone", "--quiet", "--no-checkout", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		if fe, ok := err.(*errors.FilocError); ok && fe.Code == errors.RepoUnavailable {
			return fe.WithDetails(map[string]string{"clone_url": url, "checkout_dir": dir, "stderr": detailString(fe.Details)})
		}
		return err
	}
	return nil
}

// git runs a git command with the configured timeout. Failures are reported
// with failCode; a deadline is reported as Timeout.
func (s *Snapshotter) git(ctx context.Context, dir string, failCode errors.ErrorCode, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("Executing git command", "args", args, "dir", dir, "timeout", s.cfg.GitTimeout.String())

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, "git command timed out", err).
				WithDetails(map[string]interface{}{"args": args, "timeout": s.cfg.GitTimeout.String()})
		}
		if _, ok := err.(*exec.ExitError); ok {
			return "", errors.New(failCode, fmt.Sprintf("git %s failed", args[0]), err).
				WithDetails(strings.TrimSpace(stderr.String()))
		}
		return "", errors.New(failCode, "failed to execute git", err)
	}

	return strings.TrimSpace(string(output)), nil
}

func isGitDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func detailString(d interface{}) string {
	if s, ok := d.(string); ok {
		return s
	}
	return ""
}
