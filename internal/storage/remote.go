package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/docvault/docvault/internal/errors"
)

// sha256MetaKey is the user-metadata key carrying the payload digest.
// StatObject returns user metadata with canonicalized keys.
const sha256MetaKey = "Sha256"

// Remote is a Backend over an S3-compatible object store bucket/prefix.
// Every operation is retried with bounded exponential backoff before
// surfacing ErrCodeStorageUnavailable. Uploads are idempotent: an object
// whose stored digest matches the payload is not re-uploaded.
type Remote struct {
	client *minio.Client
	bucket string
	prefix string
	retry  errors.RetryConfig
}

// NewRemote creates a remote backend from opts.
func NewRemote(opts Options) (*Remote, error) {
	if opts.Bucket == "" {
		return nil, errors.Newf(errors.ErrCodeConfigInvalid, "remote storage requires a bucket")
	}
	if opts.Endpoint == "" {
		return nil, errors.Newf(errors.ErrCodeConfigInvalid, "remote storage requires an endpoint")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err)
	}

	return &Remote{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		retry:  errors.DefaultRetryConfig(),
	}, nil
}

// key maps a backend-relative path to an object key under the prefix.
func (r *Remote) key(path string) string {
	path = strings.Trim(path, "/")
	if r.prefix == "" {
		return path
	}
	if path == "" {
		return r.prefix
	}
	return r.prefix + "/" + path
}

// classify maps a minio error to the docvault taxonomy. Missing keys stay
// non-retryable NotFound; everything else is treated as a transient
// backend failure.
func classify(err error, path string) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return errors.NotFound(path)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.Wrap(errors.ErrCodeConfigInvalid, err).WithDetail("path", path)
	default:
		return errors.Unavailable(err.Error(), err).WithDetail("path", path)
	}
}

// Write uploads data to path. If an object with the same digest already
// exists at the key, the upload is skipped (re-uploading identical content
// is a no-op observable effect).
func (r *Remote) Write(ctx context.Context, path string, data []byte) error {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	return errors.Retry(ctx, r.retry, func() error {
		stat, err := r.client.StatObject(ctx, r.bucket, r.key(path), minio.StatObjectOptions{})
		if err == nil && stat.Size == int64(len(data)) && stat.UserMetadata[sha256MetaKey] == digest {
			return nil
		}

		_, err = r.client.PutObject(ctx, r.bucket, r.key(path),
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{
				UserMetadata: map[string]string{sha256MetaKey: digest},
			})
		if err != nil {
			return classify(err, path)
		}
		return nil
	})
}

// Read downloads the object at path.
func (r *Remote) Read(ctx context.Context, path string) ([]byte, error) {
	return errors.RetryWithResult(ctx, r.retry, func() ([]byte, error) {
		obj, err := r.client.GetObject(ctx, r.bucket, r.key(path), minio.GetObjectOptions{})
		if err != nil {
			return nil, classify(err, path)
		}
		defer func() { _ = obj.Close() }()

		data, err := io.ReadAll(obj)
		if err != nil {
			return nil, classify(err, path)
		}
		return data, nil
	})
}

// List returns the sorted relative paths of all objects under prefix.
func (r *Remote) List(ctx context.Context, prefix string) ([]string, error) {
	return errors.RetryWithResult(ctx, r.retry, func() ([]string, error) {
		var paths []string
		listPrefix := r.key(prefix)
		if listPrefix != "" {
			listPrefix += "/"
		}

		for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
			Prefix:    listPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return nil, classify(obj.Err, prefix)
			}
			rel := strings.TrimPrefix(obj.Key, r.prefix)
			rel = strings.Trim(rel, "/")
			if rel == "" {
				continue
			}
			paths = append(paths, rel)
		}

		sort.Strings(paths)
		return paths, nil
	})
}

// Exists reports whether an object (or any object under a directory
// marker) exists at path.
func (r *Remote) Exists(ctx context.Context, path string) (bool, error) {
	return errors.RetryWithResult(ctx, r.retry, func() (bool, error) {
		_, err := r.client.StatObject(ctx, r.bucket, r.key(path), minio.StatObjectOptions{})
		if err == nil {
			return true, nil
		}
		cerr := classify(err, path)
		if errors.IsCode(cerr, errors.ErrCodePathNotFound) {
			// Fall back to a prefix probe so directories resolve too.
			for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
				Prefix:  r.key(path) + "/",
				MaxKeys: 1,
			}) {
				if obj.Err != nil {
					return false, classify(obj.Err, path)
				}
				return true, nil
			}
			return false, nil
		}
		return false, cerr
	})
}

// Delete removes the object at path. Missing objects are a no-op.
func (r *Remote) Delete(ctx context.Context, path string) error {
	return errors.Retry(ctx, r.retry, func() error {
		err := r.client.RemoveObject(ctx, r.bucket, r.key(path), minio.RemoveObjectOptions{})
		if err != nil {
			cerr := classify(err, path)
			if errors.IsCode(cerr, errors.ErrCodePathNotFound) {
				return nil
			}
			return cerr
		}
		return nil
	})
}

// CopyTree copies every object under srcRoot to the same relative location
// under dstRoot, uploading in parallel.
func (r *Remote) CopyTree(ctx context.Context, srcRoot, dstRoot string) error {
	paths, err := r.List(ctx, srcRoot)
	if err != nil {
		return err
	}

	g, ctx := newGroup(ctx)
	for _, p := range paths {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, srcRoot), "/")
		src, dst := p, dstRoot+"/"+rel
		g.Go(func() error {
			data, err := r.Read(ctx, src)
			if err != nil {
				return err
			}
			return r.Write(ctx, dst, data)
		})
	}
	return g.Wait()
}

// EnsureDir writes a zero-byte marker object standing in for the directory.
func (r *Remote) EnsureDir(ctx context.Context, path string) error {
	return r.Write(ctx, strings.Trim(path, "/")+"/.keep", nil)
}
