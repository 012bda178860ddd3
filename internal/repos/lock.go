package repos

import (
	"os"
	"path/filepath"
)

// FileLock represents a file-based lock.
type FileLock struct {
	file *os.File
}

// Release releases the file lock.
func (l *FileLock) Release() error {
	if l.file != nil {
		_ = unlockFile(l.file)
		_ = l.file.Close()
		l.file = nil
	}
	return nil
}

// acquireLock blocks until the lock file at path is held exclusively.
func acquireLock(path string) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &FileLock{file: f}, nil
}
