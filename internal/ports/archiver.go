package ports

import (
	"errors"
	"fmt"
)

// Asset is one file selected for repackaging: where it lives inside the
// extracted payload and the flattened name it gets at the archive root.
type Asset struct {
	SourcePath string
	Name       string
}

// MemberInfo contains metadata about a member of a produced archive.
type MemberInfo struct {
	Size  int64
	CRC32 uint32
}

// ErrOutputExists is returned when the destination archive already exists
// and the caller did not request overwrite.
var ErrOutputExists = errors.New("output archive already exists")

// NameCollisionError reports two assets flattening to the same logical name.
// Collisions are fatal; they are never resolved silently.
type NameCollisionError struct {
	Name   string
	First  string
	Second string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("flattened name collision: %q maps to both %s and %s", e.Name, e.First, e.Second)
}

// Archiver abstracts output-archive operations for testability.
// Production code uses the flatzip adapter; tests use MockArchiver.
type Archiver interface {
	// WriteFlat writes each asset under its flattened name at the archive
	// root, in the given order. Collisions are detected before the archive
	// file is created; no partial archive survives a failed write. Returns
	// the number of members written.
	WriteFlat(destPath string, assets []Asset, overwrite bool) (int, error)

	// List returns a map of member names to their info from an archive.
	List(archivePath string) (map[string]MemberInfo, error)
}
