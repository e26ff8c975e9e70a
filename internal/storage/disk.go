package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore keeps one file per entry under <root>/<namespace>/.
type DiskStore struct {
	dir       string
	namespace string
	ext       string
}

// NewDiskStore creates the namespace directory under root if needed.
func NewDiskStore(root, namespace string) (*DiskStore, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	dir := filepath.Join(root, namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskStore{dir: dir, namespace: namespace, ext: extFor(namespace)}, nil
}

func extFor(namespace string) string {
	switch namespace {
	case NamespaceSummaries:
		return ".json"
	case NamespaceIndices:
		return ".idx"
	default:
		return ".bin"
	}
}

// Dir returns the namespace directory.
func (s *DiskStore) Dir() string { return s.dir }

// Namespace returns the store namespace.
func (s *DiskStore) Namespace() string { return s.namespace }

func (s *DiskStore) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key || key == "." || key == ".." {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+s.ext), nil
}

// Exists reports whether an entry file exists for key.
func (s *DiskStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, ioError("stat", s.namespace, key, err)
}

// Read returns the entry for key.
func (s *DiskStore) Read(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(s.namespace, key)
	}
	if err != nil {
		return nil, ioError("read", s.namespace, key, err)
	}
	return data, nil
}

// Write stores data under key. The data goes to a temp file in the same
// directory, is synced, then renamed over the entry path.
func (s *DiskStore) Write(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".tmp-*")
	if err != nil {
		return ioError("write", s.namespace, key, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return ioError("write", s.namespace, key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return ioError("write", s.namespace, key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return ioError("rename", s.namespace, key, err)
	}
	return nil
}

// Close is a no-op.
func (s *DiskStore) Close() error { return nil }

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; other errors during the walk are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
