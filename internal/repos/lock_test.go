package repos

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "org__repo.lock")

	first, err := acquireLock(path)
	require.NoError(t, err)

	acquired := make(chan *FileLock)
	go func() {
		second, err := acquireLock(path)
		if err != nil {
			close(acquired)
			return
		}
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first is held")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.Release())

	select {
	case second, ok := <-acquired:
		require.True(t, ok, "second acquire failed")
		assert.NoError(t, second.Release())
	case <-time.After(5 * time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func TestFileLock_ReleaseTwice(t *testing.T) {
	lock, err := acquireLock(filepath.Join(t.TempDir(), "x.lock"))
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
	assert.NoError(t, lock.Release())
}
