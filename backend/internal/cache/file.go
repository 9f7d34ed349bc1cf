package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "cogex/backend/pkg/errors"

	"github.com/vmihailenco/msgpack/v5"
)

const fileExt = ".msgpack"

// FileStore keeps one msgpack file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory (with parents) if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, err := os.ReadFile(s.Path(key))
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheReadFailed(key, err)
	}
	if err := msgpack.Unmarshal(raw, dst); err != nil {
		return false, apperrors.NewCacheReadFailed(key, err)
	}
	return true, nil
}

// Put writes to a temporary file and renames it into place so readers never
// observe a partial entry.
func (s *FileStore) Put(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return apperrors.NewCacheWriteFailed(key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return apperrors.NewCacheWriteFailed(key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.NewCacheWriteFailed(key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewCacheWriteFailed(key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewCacheWriteFailed(key, err)
	}
	return nil
}

// Delete removes the entry. Deleting a missing entry is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return apperrors.NewCacheWriteFailed(key, err)
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.NewCacheReadFailed(s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}
