package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docvault/docvault/internal/errors"
)

// Local is a Backend over a filesystem root directory.
type Local struct {
	root string
}

// NewLocal creates a local backend rooted at dir, creating it if absent.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.Newf(errors.ErrCodeConfigInvalid, "local storage root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute filesystem root.
func (l *Local) Root() string {
	return l.root
}

// Abs returns the absolute filesystem path for a backend-relative path.
func (l *Local) Abs(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Write stores data at path atomically: the bytes land in a temp file in
// the target directory and are renamed into place, so readers never
// observe a partially written file.
func (l *Local) Write(_ context.Context, path string, data []byte) error {
	dst := l.Abs(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	return nil
}

// Read returns the file contents at path.
func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.Abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(path)
		}
		return nil, errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	return data, nil
}

// List returns the sorted relative paths of all files under prefix.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	root := l.Abs(prefix)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("prefix", prefix)
	}
	if !info.IsDir() {
		return []string{prefix}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("prefix", prefix)
	}

	sort.Strings(paths)
	return paths, nil
}

// Exists reports whether a file or directory exists at path.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.Abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	return true, nil
}

// Delete removes the file or directory tree at path.
func (l *Local) Delete(_ context.Context, path string) error {
	if err := os.RemoveAll(l.Abs(path)); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	return nil
}

// CopyTree copies every file under srcRoot to the same relative location
// under dstRoot.
func (l *Local) CopyTree(ctx context.Context, srcRoot, dstRoot string) error {
	paths, err := l.List(ctx, srcRoot)
	if err != nil {
		return err
	}
	for _, p := range paths {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, srcRoot), "/")
		data, err := l.Read(ctx, p)
		if err != nil {
			return err
		}
		if err := l.Write(ctx, dstRoot+"/"+rel, data); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates an empty directory at path.
func (l *Local) EnsureDir(_ context.Context, path string) error {
	if err := os.MkdirAll(l.Abs(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotIO, err).WithDetail("path", path)
	}
	return nil
}
