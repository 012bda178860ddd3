package repos

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filoc/internal/errors"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{
		"-c", "user.email=test@example.com",
		"-c", "user.name=test",
		"-c", "commit.gpgsign=false",
	}, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// makeUpstream creates <root>/<repo> with two commits and returns their hashes.
func makeUpstream(t *testing.T, root, repo string) (string, string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(repo))
	require.NoError(t, os.MkdirAll(dir, 0755))

	runGit(t, dir, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("v1\n"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "first")
	first := runGit(t, dir, "rev-parse", "HEAD")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("v2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.py"), []byte("n\n"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "second")
	second := runGit(t, dir, "rev-parse", "HEAD")

	return first, second
}

func TestSnapshotter_Checkout(t *testing.T) {
	requireGit(t)

	upstream := t.TempDir()
	first, second := makeUpstream(t, upstream, "acme/widget")

	s := NewSnapshotter(SnapshotConfig{
		WorkspaceDir: filepath.Join(t.TempDir(), "ws"),
		CloneURL:     filepath.Join(upstream, "{repo}"),
		GitTimeout:   time.Minute,
		Clean:        true,
	}, nil)
	ctx := context.Background()

	dir, err := s.Checkout(ctx, "acme/widget", first)
	require.NoError(t, err)
	assert.Equal(t, "acme__widget", filepath.Base(dir))

	data, err := os.ReadFile(filepath.Join(dir, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "new.py"))

	// Untracked leftovers are removed on the next checkout.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.txt"), []byte("x"), 0644))

	dir2, err := s.Checkout(ctx, "acme/widget", second)
	require.NoError(t, err)
	assert.Equal(t, dir, dir2, "one working copy per repository")

	data, err = os.ReadFile(filepath.Join(dir, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(data))
	assert.FileExists(t, filepath.Join(dir, "new.py"))
	assert.NoFileExists(t, filepath.Join(dir, "junk.txt"))
}

func TestSnapshotter_FetchesNewCommits(t *testing.T) {
	requireGit(t)

	upstream := t.TempDir()
	first, _ := makeUpstream(t, upstream, "acme/widget")

	s := NewSnapshotter(SnapshotConfig{
		WorkspaceDir: t.TempDir(),
		CloneURL:     filepath.Join(upstream, "{repo}"),
	}, nil)
	ctx := context.Background()

	_, err := s.Checkout(ctx, "acme/widget", first)
	require.NoError(t, err)

	src := filepath.Join(upstream, "acme", "widget")
	require.NoError(t, os.WriteFile(filepath.Join(src, "third.py"), []byte("3\n"), 0644))
	runGit(t, src, "add", ".")
	runGit(t, src, "commit", "-q", "-m", "third")
	third := runGit(t, src, "rev-parse", "HEAD")

	dir, err := s.Checkout(ctx, "acme/widget", third)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "third.py"))
}

func TestSnapshotter_Errors(t *testing.T) {
	requireGit(t)

	upstream := t.TempDir()
	makeUpstream(t, upstream, "acme/widget")

	s := NewSnapshotter(SnapshotConfig{
		WorkspaceDir: t.TempDir(),
		CloneURL:     filepath.Join(upstream, "{repo}"),
	}, nil)
	ctx := context.Background()

	_, err := s.Checkout(ctx, "acme/missing", "deadbeef")
	assert.Equal(t, errors.RepoUnavailable, errors.CodeOf(err))
	assert.NoDirExists(t, s.CheckoutDir("acme/missing"))

	_, err = s.Checkout(ctx, "acme/widget", "0000000000000000000000000000000000000000")
	assert.Equal(t, errors.CheckoutFailed, errors.CodeOf(err))

	_, err = s.Checkout(ctx, "", "abc")
	assert.Equal(t, errors.RepoUnavailable, errors.CodeOf(err))

	_, err = s.Checkout(ctx, "acme/widget", " ")
	assert.Equal(t, errors.CheckoutFailed, errors.CodeOf(err))
}

func TestSnapshotter_Defaults(t *testing.T) {
	s := NewSnapshotter(SnapshotConfig{WorkspaceDir: "/ws"}, nil)
	assert.Equal(t, "https://github.com/django/django.git", s.CloneURL("django/django"))
	assert.Equal(t, filepath.Join("/ws", "django__django"), s.CheckoutDir("django/django"))
}
