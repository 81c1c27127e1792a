package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileStore writes each blob to <dir>/<key>.json.
// No caching: every call hits the file. Writers serialize on an advisory
// lock file per key, and each write lands in a temp file that is renamed
// over the blob, so readers see either the old or the new value.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the blob files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) lockPath(key string) string {
	return filepath.Join(s.dir, "."+key+".lock")
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the blob: lock, write temp file, sync, rename, unlock.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.withLock(key, func() error {
		tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp blob %s: %w", key, err)
		}
		tmpName := tmp.Name()
		committed := false
		defer func() {
			if !committed {
				_ = os.Remove(tmpName)
			}
		}()

		if _, err := tmp.Write(value); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write blob %s: %w", key, err)
		}
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("sync blob %s: %w", key, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close blob %s: %w", key, err)
		}
		if err := os.Chmod(tmpName, 0o644); err != nil {
			return fmt.Errorf("chmod blob %s: %w", key, err)
		}
		if err := os.Rename(tmpName, s.path(key)); err != nil {
			return fmt.Errorf("replace blob %s: %w", key, err)
		}
		committed = true
		return nil
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.withLock(key, func() error {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove blob %s: %w", key, err)
		}
		return nil
	})
}

// withLock holds an exclusive flock on the key's lock file while fn runs.
// The blob itself is never locked because rename swaps its inode.
func (s *FileStore) withLock(key string, fn func() error) error {
	file, err := os.OpenFile(s.lockPath(key), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open lock %s: %w", key, err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock blob %s: %w", key, err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return fn()
}
