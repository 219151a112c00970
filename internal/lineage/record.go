// Package lineage records the provenance of derived artifacts: which data
// version and which exact files an index was built from, and with what
// parameters.
package lineage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/errors"
)

// FileRef identifies one source file by name and content hash. The hashes
// come from the snapshot manifest, so a lineage record pins the exact
// bytes an artifact was built from even if the snapshot is later removed.
type FileRef struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Record is the provenance document stored beside a derived artifact.
// Records are append-only: re-recording an artifact replaces the sidecar
// wholesale, it never patches fields in place.
type Record struct {
	// ID uniquely identifies this record. Derived from the artifact path,
	// data version, and creation time, so two builds of the same artifact
	// get distinct IDs.
	ID string `json:"id"`

	// ArtifactPath is the backend-relative artifact directory.
	ArtifactPath string `json:"artifact_path"`

	// DataVersion is the snapshot version the artifact derives from.
	DataVersion string `json:"data_version"`

	// FilesUsed lists the source files that went into the build.
	FilesUsed []FileRef `json:"files_used"`

	// Parameters captures build settings (chunk size, model name, ...).
	Parameters map[string]any `json:"parameters,omitempty"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`

	// Note is an optional free-form operator annotation.
	Note string `json:"note,omitempty"`
}

// computeID derives the record identifier.
func computeID(artifactPath, dataVersion string, createdAt time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", artifactPath, dataVersion, createdAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Encode serializes the record as indented JSON.
func (r *Record) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return append(data, '\n'), nil
}

// DecodeRecord parses and validates a lineage document. A record that
// parses but lacks its required fields is treated as corruption, not as
// absence.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConsistency, err)
	}
	if r.ID == "" || r.DataVersion == "" || r.ArtifactPath == "" {
		return nil, errors.Consistency("lineage record is missing required fields").
			WithDetail("id", r.ID).
			WithDetail("data_version", r.DataVersion)
	}
	return &r, nil
}
