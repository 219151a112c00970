// Package storage provides the artifact tree persistence layer.
//
// A Backend exposes uniform read/write/list/delete operations over a named
// artifact tree. Three implementations exist: Local (filesystem root),
// Remote (S3-compatible object store), and Hybrid (local authoritative,
// mirrored to remote). Callers select one at construction time via Options.
//
// Paths are slash-separated and relative to the backend root. Every method
// may block on I/O; callers apply their own timeouts through ctx.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Backend is the capability interface over a named artifact tree.
type Backend interface {
	// Write stores data at path, creating parent directories as needed.
	// Local writes are atomic (temp file + rename).
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the contents at path, or ErrCodePathNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns the sorted relative paths of all files under prefix.
	// A missing prefix yields an empty list, not an error; listing the
	// backend root of an empty tree is a normal state.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the file or tree at path. A missing path is a no-op.
	Delete(ctx context.Context, path string) error

	// CopyTree copies every file under srcRoot to the same relative
	// location under dstRoot.
	CopyTree(ctx context.Context, srcRoot, dstRoot string) error

	// EnsureDir materializes an empty directory at path. On object stores,
	// where directories do not exist, a zero-byte marker object stands in.
	EnsureDir(ctx context.Context, path string) error
}

// Type selects a backend implementation.
type Type string

const (
	TypeLocal  Type = "local"
	TypeRemote Type = "remote"
	TypeHybrid Type = "hybrid"
)

// Options configures backend construction.
type Options struct {
	// Type selects local, remote, or hybrid.
	Type Type

	// Root is the local filesystem root (local and hybrid).
	Root string

	// Endpoint is the object store endpoint host:port (remote and hybrid).
	Endpoint string
	// Bucket is the object store bucket (remote and hybrid).
	Bucket string
	// Prefix is the key prefix inside the bucket.
	Prefix string
	// AccessKey and SecretKey are the object store credentials.
	AccessKey string
	SecretKey string
	// UseSSL enables TLS for the object store connection.
	UseSSL bool
}

// New constructs the backend selected by opts. Hybrid composes Local and
// Remote rather than being a third hand-written code path.
func New(opts Options) (Backend, error) {
	switch opts.Type {
	case TypeLocal:
		return NewLocal(opts.Root)
	case TypeRemote:
		return NewRemote(opts)
	case TypeHybrid:
		local, err := NewLocal(opts.Root)
		if err != nil {
			return nil, err
		}
		remote, err := NewRemote(opts)
		if err != nil {
			return nil, err
		}
		return NewHybrid(local, remote), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.Type)
	}
}

// Closer is implemented by backends that hold resources needing an
// explicit flush (the hybrid mirror queue). Callers should type-assert
// and close when done.
type Closer interface {
	io.Closer
}
