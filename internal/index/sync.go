// Package index keeps derived-artifact directories in lockstep with data
// snapshot versions. It owns the artifact directory tree; the external
// build pipeline populates the directories, and the lineage recorder
// documents what went into them.
package index

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// LineageName is the sidecar file holding an artifact's lineage record.
const LineageName = "lineage.json"

// Dir is a handle to a derived-artifact directory.
type Dir struct {
	// Version is the snapshot version this artifact derives from.
	Version versioning.Version
	// Path is the backend-relative directory path.
	Path string
}

// Resolver resolves symbolic version references. Satisfied by
// snapshot.Manager. Artifact "latest" resolution always delegates to the
// data pointer; there is no independently tracked index pointer.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (versioning.Version, error)
}

// Synchronizer guarantees every data snapshot version has at most one
// derived-artifact directory, created on demand and named identically to
// the data version.
type Synchronizer struct {
	backend  storage.Backend
	catalog  *versioning.Catalog
	resolver Resolver
	root     string
	logger   *slog.Logger
}

// NewSynchronizer creates a synchronizer over the artifact root prefix
// (e.g. "indexes").
func NewSynchronizer(backend storage.Backend, catalog *versioning.Catalog, resolver Resolver, root string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		backend:  backend,
		catalog:  catalog,
		resolver: resolver,
		root:     strings.Trim(root, "/"),
		logger:   logger,
	}
}

// PathFor returns the backend-relative artifact directory of a version.
func (s *Synchronizer) PathFor(v versioning.Version) string {
	return s.root + "/" + v.String()
}

// EnsureArtifactDir returns the artifact directory for a version, creating
// it if needed. The call is idempotent: an existing directory is returned
// unchanged with no additional writes, so pipeline re-runs are safe.
// Requesting a directory for a version with no snapshot fails with
// ErrCodeOrphanIndex: an artifact must never exist without its source.
func (s *Synchronizer) EnsureArtifactDir(ctx context.Context, v versioning.Version) (Dir, error) {
	dir := Dir{Version: v, Path: s.PathFor(v)}

	exists, err := s.backend.Exists(ctx, dir.Path)
	if err != nil {
		return Dir{}, err
	}
	if exists {
		return dir, nil
	}

	snapExists, err := s.catalog.Exists(ctx, v)
	if err != nil {
		return Dir{}, err
	}
	if !snapExists {
		return Dir{}, errors.Newf(errors.ErrCodeOrphanIndex,
			"no snapshot %s exists for the requested artifact directory", v).
			WithDetail("version", v.String()).
			WithSuggestion("create the data snapshot before building its index")
	}

	if err := s.backend.EnsureDir(ctx, dir.Path); err != nil {
		return Dir{}, err
	}

	s.logger.Info("artifact directory created", "version", v.String(), "path", dir.Path)
	return dir, nil
}

// ResolveLatest resolves the artifact directory for the current latest
// data version by delegating to the snapshot pointer.
func (s *Synchronizer) ResolveLatest(ctx context.Context) (Dir, error) {
	v, err := s.resolver.Resolve(ctx, "latest")
	if err != nil {
		return Dir{}, err
	}
	return Dir{Version: v, Path: s.PathFor(v)}, nil
}

// Finding describes one inconsistency discovered by Verify.
type Finding struct {
	Version versioning.Version
	Problem string
}

// Verify scans the artifact tree for broken invariants: artifact
// directories whose snapshot is gone, and populated directories without a
// lineage record (a build that died between directory creation and
// lineage commit). Findings require manual intervention or an explicit
// rebuild; Verify never repairs.
func (s *Synchronizer) Verify(ctx context.Context) ([]Finding, error) {
	paths, err := s.backend.List(ctx, s.root)
	if err != nil {
		return nil, err
	}

	type dirState struct {
		hasLineage bool
		files      int
	}
	dirs := make(map[versioning.Version]*dirState)
	for _, p := range paths {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, s.root), "/")
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := versioning.Parse(parts[0])
		if err != nil {
			continue
		}
		st := dirs[v]
		if st == nil {
			st = &dirState{}
			dirs[v] = st
		}
		switch parts[1] {
		case LineageName:
			st.hasLineage = true
		case ".keep":
			// Directory marker, not pipeline output.
		default:
			st.files++
		}
	}

	var findings []Finding
	for v, st := range dirs {
		snapExists, err := s.catalog.Exists(ctx, v)
		if err != nil {
			return nil, err
		}
		if !snapExists {
			findings = append(findings, Finding{
				Version: v,
				Problem: "artifact directory has no corresponding snapshot",
			})
		}
		if st.files > 0 && !st.hasLineage {
			findings = append(findings, Finding{
				Version: v,
				Problem: "populated artifact directory has no lineage record",
			})
		}
	}
	return findings, nil
}
