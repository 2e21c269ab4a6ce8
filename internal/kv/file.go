package kv

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileStore keeps one file per namespace in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(ns Namespace) string {
	return filepath.Join(s.dir, string(ns)+".json")
}

func (s *FileStore) lockPath() string {
	return filepath.Join(s.dir, "ibuddy.lock")
}

// Load reads the blob for ns. A missing file is a miss, not an error.
func (s *FileStore) Load(ns Namespace) ([]byte, bool, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(ns))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistenceError("read", ns, err)
	}
	return data, true, nil
}

// Save writes the blob for ns atomically. Identical content is not rewritten.
func (s *FileStore) Save(ns Namespace, data []byte) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	return s.withLock(func() error {
		path := s.path(ns)
		if existing, err := os.ReadFile(path); err == nil {
			if bytes.Equal(existing, data) {
				return nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return persistenceError("read", ns, err)
		}

		tmpFile, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp")
		if err != nil {
			return persistenceError("create temp file", ns, err)
		}
		name := tmpFile.Name()
		_, err = tmpFile.Write(data)
		if err1 := tmpFile.Close(); err1 != nil && err == nil {
			err = err1
		}
		if err != nil {
			os.Remove(name)
			return persistenceError("write temp file", ns, err)
		}

		if err := os.Rename(name, path); err != nil {
			os.Remove(name)
			return persistenceError("rename", ns, err)
		}
		return nil
	})
}

// Clear removes the blob for ns. Clearing a missing namespace succeeds.
func (s *FileStore) Clear(ns Namespace) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	return s.withLock(func() error {
		err := os.Remove(s.path(ns))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return persistenceError("remove", ns, err)
		}
		return nil
	})
}

// Close is a no-op; the file store holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}

// withLock serializes writers across processes sharing the directory.
func (s *FileStore) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create state dir: %w", ErrPersistence, err)
	}

	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("%w: open lock file: %w", ErrPersistence, err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("%w: acquire lock: %w", ErrPersistence, err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	return fn()
}
