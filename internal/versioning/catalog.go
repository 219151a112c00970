package versioning

import (
	"context"
	"strings"

	"github.com/docvault/docvault/internal/storage"
)

// Catalog enumerates known snapshot versions by listing version
// directories under a storage backend and parsing the v{major}.{minor}
// naming convention. Entries that do not match the convention are ignored,
// so unrelated files can coexist in the same root. A version is visible
// only once its manifest exists; directories without one are unfinished
// writes.
type Catalog struct {
	backend storage.Backend
	root    string
}

// NewCatalog creates a catalog over the given backend and root prefix
// (e.g. "raw").
func NewCatalog(backend storage.Backend, root string) *Catalog {
	return &Catalog{backend: backend, root: strings.Trim(root, "/")}
}

// Root returns the catalog's root prefix.
func (c *Catalog) Root() string {
	return c.root
}

// PathFor returns the backend-relative directory of a version.
func (c *Catalog) PathFor(v Version) string {
	return c.root + "/" + v.String()
}

// ListVersions returns all committed versions in ascending order.
func (c *Catalog) ListVersions(ctx context.Context) ([]Version, error) {
	paths, err := c.backend.List(ctx, c.root)
	if err != nil {
		return nil, err
	}

	seen := make(map[Version]bool)
	var versions []Version
	for _, p := range paths {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, c.root), "/")
		parts := strings.SplitN(rel, "/", 2)
		// Only version directories whose manifest is present count.
		if len(parts) != 2 || parts[1] != ManifestName {
			continue
		}
		v, err := Parse(parts[0])
		if err != nil {
			continue
		}
		if !seen[v] {
			seen[v] = true
			versions = append(versions, v)
		}
	}

	Sort(versions)
	return versions, nil
}

// Latest returns the highest-ordered version, or nil if none exist.
func (c *Catalog) Latest(ctx context.Context) (*Version, error) {
	versions, err := c.ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	v := versions[len(versions)-1]
	return &v, nil
}

// Exists reports whether the version is committed in the catalog.
func (c *Catalog) Exists(ctx context.Context, v Version) (bool, error) {
	return c.backend.Exists(ctx, c.PathFor(v)+"/"+ManifestName)
}
