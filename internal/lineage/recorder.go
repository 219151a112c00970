package lineage

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/index"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// cacheSize bounds the read cache. Lineage files are small and read far
// more often than written; audits re-read the same handful repeatedly.
const cacheSize = 128

// Spec describes a build whose provenance should be recorded.
type Spec struct {
	// Version is the data version the artifact was built from.
	Version versioning.Version
	// ArtifactPath is the backend-relative artifact directory.
	ArtifactPath string
	// Files are the source files used, by name and content hash.
	Files []FileRef
	// Parameters captures arbitrary build settings.
	Parameters map[string]any
	// Note is an optional operator annotation.
	Note string
}

// Recorder writes and reads lineage sidecars next to artifact directories.
type Recorder struct {
	backend storage.Backend
	cache   *lru.Cache[string, *Record]
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder over the backend.
func NewRecorder(backend storage.Backend, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, *Record](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return &Recorder{
		backend: backend,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// recordPath returns the sidecar path for an artifact directory.
func recordPath(artifactPath string) string {
	return artifactPath + "/" + index.LineageName
}

// Record writes the lineage sidecar for a build. The recorder does not
// validate spec.Version against the catalog; callers obtain the version
// from snapshot.Manager.Resolve, which only yields committed versions.
func (r *Recorder) Record(ctx context.Context, spec Spec) (*Record, error) {
	if spec.ArtifactPath == "" {
		return nil, errors.Newf(errors.ErrCodeConsistency, "lineage spec has no artifact path")
	}
	if len(spec.Files) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyFileSet,
			"lineage record must reference at least one source file").
			WithDetail("artifact", spec.ArtifactPath)
	}

	createdAt := r.now().UTC()
	rec := &Record{
		ID:           computeID(spec.ArtifactPath, spec.Version.String(), createdAt),
		ArtifactPath: spec.ArtifactPath,
		DataVersion:  spec.Version.String(),
		FilesUsed:    spec.Files,
		Parameters:   spec.Parameters,
		CreatedAt:    createdAt,
		Note:         spec.Note,
	}

	data, err := rec.Encode()
	if err != nil {
		return nil, err
	}
	path := recordPath(spec.ArtifactPath)
	if err := r.backend.Write(ctx, path, data); err != nil {
		return nil, err
	}

	// A re-record must never serve the stale cached copy.
	r.cache.Remove(path)

	r.logger.Info("lineage recorded",
		"id", rec.ID, "artifact", spec.ArtifactPath, "version", rec.DataVersion,
		"files", len(rec.FilesUsed))
	return rec, nil
}

// Get reads the lineage record for an artifact directory. A missing
// sidecar yields ErrCodeLineageNotFound, which callers must keep distinct
// from the artifact itself being absent.
func (r *Recorder) Get(ctx context.Context, artifactPath string) (*Record, error) {
	path := recordPath(artifactPath)
	if rec, ok := r.cache.Get(path); ok {
		return rec, nil
	}

	data, err := r.backend.Read(ctx, path)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodePathNotFound) {
			return nil, errors.LineageNotFound(artifactPath)
		}
		return nil, err
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	r.cache.Add(path, rec)
	return rec, nil
}

// List returns the lineage records of every artifact under root that has
// one, keyed for audit in catalog order.
func (r *Recorder) List(ctx context.Context, root string) ([]*Record, error) {
	paths, err := r.backend.List(ctx, root)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, p := range paths {
		if !isLineagePath(p) {
			continue
		}
		data, err := r.backend.Read(ctx, p)
		if err != nil {
			return nil, err
		}
		rec, err := DecodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func isLineagePath(p string) bool {
	n := len(p) - len(index.LineageName)
	return n > 0 && p[n-1] == '/' && p[n:] == index.LineageName
}
