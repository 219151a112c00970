// Package snapshot materializes immutable versioned snapshots of source
// documents and maintains the movable "latest" pointer.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// PointerName is the file under the snapshot root holding the latest
// version string. It is rewritten atomically and only by the Manager; all
// other components read it through Resolve.
const PointerName = "latest"

// LatestRef is the symbolic reference resolving to the latest pointer.
const LatestRef = "latest"

// Manager owns snapshot directories and the latest pointer. Snapshots are
// immutable once created; the pointer is the only mutable shared state.
//
// Two concurrent Create calls on the same family are not serialized here;
// the CLI takes a cross-process writer lock (internal/lock) and the
// recommended deployment is a single designated batch writer.
type Manager struct {
	backend storage.Backend
	catalog *versioning.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a snapshot manager over the backend and catalog.
func NewManager(backend storage.Backend, catalog *versioning.Catalog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: backend,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// pointerPath returns the backend-relative path of the latest pointer.
func (m *Manager) pointerPath() string {
	return m.catalog.Root() + "/" + PointerName
}

// Create materializes a new versioned snapshot of the given source files.
//
// Steps are strictly ordered: allocate the next identifier, copy files
// while hashing them into the manifest, write the manifest (the commit
// point; until then the version is invisible to the catalog), then move
// the latest pointer. A crash before the manifest write leaves no visible
// version; the pointer update is the last observable effect.
func (m *Manager) Create(ctx context.Context, sourceFiles []string, inc versioning.Increment) (versioning.Version, error) {
	if len(sourceFiles) == 0 {
		return versioning.Version{}, errors.Newf(errors.ErrCodeEmptyFileSet,
			"no source files given for snapshot")
	}

	existing, err := m.catalog.ListVersions(ctx)
	if err != nil {
		return versioning.Version{}, err
	}

	v, err := versioning.Next(existing, inc)
	if err != nil {
		return versioning.Version{}, err
	}

	// The allocator contract makes this impossible; finding the version
	// anyway means the catalog and allocator disagree, which is a
	// consistency failure, not something to retry.
	exists, err := m.catalog.Exists(ctx, v)
	if err != nil {
		return versioning.Version{}, err
	}
	if exists {
		return versioning.Version{}, errors.Newf(errors.ErrCodeDuplicateVersion,
			"allocated version %s already exists", v).
			WithDetail("version", v.String())
	}

	dir := m.catalog.PathFor(v)

	// A crashed create can leave uncommitted debris at the allocated path
	// (files copied, manifest never written). The identifier is reused, so
	// clear the directory first; otherwise a stray file with a name outside
	// the new file set would ride into the committed snapshot without
	// appearing in its manifest.
	dirty, err := m.backend.Exists(ctx, dir)
	if err != nil {
		return versioning.Version{}, err
	}
	if dirty {
		m.logger.Warn("clearing uncommitted debris from crashed create",
			"version", v.String(), "path", dir)
		if err := m.backend.Delete(ctx, dir); err != nil {
			return versioning.Version{}, err
		}
	}

	entries := make([]ManifestEntry, 0, len(sourceFiles))
	for _, src := range sourceFiles {
		data, err := os.ReadFile(src)
		if err != nil {
			return versioning.Version{}, errors.Wrap(errors.ErrCodeSnapshotIO, err).
				WithDetail("source", src).
				WithDetail("version", v.String())
		}

		name := filepath.Base(src)
		if err := m.backend.Write(ctx, dir+"/"+name, data); err != nil {
			return versioning.Version{}, err
		}

		entries = append(entries, ManifestEntry{
			Name:   name,
			SHA256: hashBytes(data),
			Size:   int64(len(data)),
			Source: src,
		})
	}

	manifest := &Manifest{
		Version:   v.String(),
		CreatedAt: m.now().UTC(),
		Digest:    computeDigest(entries),
		Files:     entries,
	}

	m.warnOnDuplicateContent(ctx, existing, manifest)

	data, err := manifest.Encode()
	if err != nil {
		return versioning.Version{}, err
	}
	if err := m.backend.Write(ctx, dir+"/"+versioning.ManifestName, data); err != nil {
		return versioning.Version{}, err
	}

	if err := m.updatePointer(ctx, v); err != nil {
		return versioning.Version{}, err
	}

	m.logger.Info("snapshot created",
		"version", v.String(), "files", len(entries), "digest", manifest.Digest[:12])
	return v, nil
}

// warnOnDuplicateContent flags a new snapshot whose content digest matches
// the current latest. Creation proceeds: the operator explicitly asked for
// a new version, and the manifest keeps the evidence.
func (m *Manager) warnOnDuplicateContent(ctx context.Context, existing []versioning.Version, manifest *Manifest) {
	if len(existing) == 0 {
		return
	}
	prev := existing[len(existing)-1]
	prevManifest, err := m.Manifest(ctx, prev)
	if err != nil {
		return
	}
	if prevManifest.Digest == manifest.Digest {
		m.logger.Warn("snapshot content is identical to previous version",
			"version", manifest.Version, "previous", prev.String(), "digest", manifest.Digest[:12])
	}
}

// updatePointer moves the latest pointer to v if v exceeds the current
// pointer value. The write is atomic, so readers see either the old or
// the new version, never a partial value.
func (m *Manager) updatePointer(ctx context.Context, v versioning.Version) error {
	current, err := m.readPointer(ctx)
	if err == nil && current != nil && !current.Less(v) {
		return nil
	}
	return m.backend.Write(ctx, m.pointerPath(), []byte(v.String()+"\n"))
}

// readPointer reads the pointer value, returning nil if it does not exist.
func (m *Manager) readPointer(ctx context.Context) (*versioning.Version, error) {
	data, err := m.backend.Read(ctx, m.pointerPath())
	if err != nil {
		if errors.IsCode(err, errors.ErrCodePathNotFound) {
			return nil, nil
		}
		return nil, err
	}
	v, err := versioning.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, errors.Consistency("latest pointer holds an invalid version identifier").
			WithDetail("pointer", strings.TrimSpace(string(data)))
	}
	return &v, nil
}

// Latest resolves the latest pointer. If the pointer file is missing but
// committed versions exist (e.g. a root populated by an older tool), it
// falls back to the catalog maximum.
func (m *Manager) Latest(ctx context.Context) (*versioning.Version, error) {
	v, err := m.readPointer(ctx)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}
	return m.catalog.Latest(ctx)
}

// Resolve resolves a version reference: "latest" via the pointer, an
// explicit identifier validated against the catalog and returned
// unchanged. The manager never substitutes a different version than the
// one requested.
func (m *Manager) Resolve(ctx context.Context, ref string) (versioning.Version, error) {
	if ref == "" || ref == LatestRef {
		v, err := m.Latest(ctx)
		if err != nil {
			return versioning.Version{}, err
		}
		if v == nil {
			return versioning.Version{}, errors.VersionNotFound(LatestRef).
				WithSuggestion("create a snapshot first: docvault snapshot create")
		}
		return *v, nil
	}

	v, err := versioning.Parse(ref)
	if err != nil {
		return versioning.Version{}, err
	}
	exists, err := m.catalog.Exists(ctx, v)
	if err != nil {
		return versioning.Version{}, err
	}
	if !exists {
		return versioning.Version{}, errors.VersionNotFound(ref)
	}
	return v, nil
}

// Manifest reads the committed manifest of a version.
func (m *Manager) Manifest(ctx context.Context, v versioning.Version) (*Manifest, error) {
	data, err := m.backend.Read(ctx, m.catalog.PathFor(v)+"/"+versioning.ManifestName)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodePathNotFound) {
			return nil, errors.VersionNotFound(v.String())
		}
		return nil, err
	}
	return DecodeManifest(data)
}
