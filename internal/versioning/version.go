// Package versioning defines the version identifier used by both snapshot
// and index artifact families, the allocator that computes the next
// identifier, and the catalog that enumerates existing versions.
package versioning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/docvault/docvault/internal/errors"
)

// ManifestName is the file whose presence makes a snapshot version visible
// to the catalog. Writing it is the commit point of snapshot creation: a
// version directory without a manifest is treated as an unfinished write
// and ignored.
const ManifestName = "manifest.json"

// versionPattern matches the v{major}.{minor} naming convention.
var versionPattern = regexp.MustCompile(`^v(\d+)\.(\d+)$`)

// Version is an ordered (major, minor) pair, serialized as v{major}.{minor}.
// Identifiers within one artifact family are unique and strictly increasing
// over time; an identifier is never reused, even after deletion.
type Version struct {
	Major int
	Minor int
}

// Parse parses a v{major}.{minor} string into a Version.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Newf(errors.ErrCodeInvalidVersion,
			"invalid version identifier %q (want v{major}.{minor})", s).
			WithDetail("version", s)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err)
	}
	return Version{Major: major, Minor: minor}, nil
}

// MustParse parses a version string and panics on failure. Test helper.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the v{major}.{minor} serialization.
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Compare orders versions lexicographically on (major, minor).
// Returns -1, 0, or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor != o.Minor:
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Sort sorts versions ascending in place.
func Sort(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}

// Increment is the class of version bump requested by a caller.
type Increment string

const (
	// IncrementMajor bumps (M, m) to (M+1, 0).
	IncrementMajor Increment = "major"
	// IncrementMinor bumps (M, m) to (M, m+1).
	IncrementMinor Increment = "minor"
)

// ParseIncrement validates an increment class supplied by a caller.
func ParseIncrement(s string) (Increment, error) {
	switch Increment(s) {
	case IncrementMajor:
		return IncrementMajor, nil
	case IncrementMinor:
		return IncrementMinor, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidIncrement,
			"invalid increment %q (want major or minor)", s).
			WithDetail("increment", s)
	}
}

// Next computes the next version identifier given the existing identifiers
// and the requested increment class. The first version of a family is
// always v1.0, regardless of increment.
func Next(existing []Version, inc Increment) (Version, error) {
	if inc != IncrementMajor && inc != IncrementMinor {
		return Version{}, errors.Newf(errors.ErrCodeInvalidIncrement,
			"invalid increment %q (want major or minor)", string(inc)).
			WithDetail("increment", string(inc))
	}

	if len(existing) == 0 {
		return Version{Major: 1, Minor: 0}, nil
	}

	max := existing[0]
	for _, v := range existing[1:] {
		if max.Less(v) {
			max = v
		}
	}

	if inc == IncrementMajor {
		return Version{Major: max.Major + 1, Minor: 0}, nil
	}
	return Version{Major: max.Major, Minor: max.Minor + 1}, nil
}
