package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/errors"
)

// ManifestEntry describes one source file captured in a snapshot.
type ManifestEntry struct {
	// Name is the file name inside the snapshot directory.
	Name string `json:"name"`
	// SHA256 is the hex content hash of the file.
	SHA256 string `json:"sha256"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// Source is the original path the file was copied from.
	Source string `json:"source"`
}

// Manifest is the content-addressed inventory of a snapshot. Its presence
// commits the version; it is written last and never mutated afterwards.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	// Digest is the aggregate content digest over all entries, used to
	// flag accidental duplicate-content versions.
	Digest string          `json:"digest"`
	Files  []ManifestEntry `json:"files"`
}

// computeDigest derives the aggregate digest from the ordered entries.
// It covers names and content hashes only, so the same file set produces
// the same digest regardless of where it was copied from.
func computeDigest(entries []ManifestEntry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s:%s\n", e.Name, e.SHA256)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Encode serializes the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return append(data, '\n'), nil
}

// DecodeManifest parses and validates a manifest document.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConsistency, err)
	}
	if m.Version == "" {
		return nil, errors.Consistency("manifest has no version field")
	}
	return &m, nil
}

// hashBytes returns the hex SHA-256 of data.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
