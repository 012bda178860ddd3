// Package paths resolves filoc's on-disk locations and normalizes
// repository-relative paths.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnvVar overrides the filoc home directory
	HomeEnvVar = "FILOC_HOME"

	// DefaultHome is the home directory name under the user's home
	DefaultHome = ".filoc"
)

// GetHome returns the filoc home directory.
// FILOC_HOME takes precedence over ~/.filoc.
func GetHome() (string, error) {
	if env := os.Getenv(HomeEnvVar); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(home, DefaultHome), nil
}

// DefaultWorkspaceDir returns where repository checkouts live by default
func DefaultWorkspaceDir() string {
	return filepath.Join(homeOrDot(), "checkouts")
}

// DefaultCachePath returns the default embedding cache database path
func DefaultCachePath() string {
	return filepath.Join(homeOrDot(), "cache.db")
}

func homeOrDot() string {
	home, err := GetHome()
	if err != nil {
		return DefaultHome
	}
	return home
}

// CheckoutDirName maps a repository identifier such as "owner/name" to a
// single directory name ("owner__name").
func CheckoutDirName(repo string) string {
	repo = strings.TrimSuffix(strings.TrimSpace(repo), ".git")
	repo = strings.Trim(NormalizePath(repo), "/")
	return strings.ReplaceAll(repo, "/", "__")
}

// NormalizePath converts backslashes to forward slashes and strips a
// leading "./".
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "./")
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// IsWithinRepo reports whether a canonical path stays inside the repo root
func IsWithinRepo(canonicalPath string) bool {
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(canonicalPath)))
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../") && !filepath.IsAbs(canonicalPath)
}
