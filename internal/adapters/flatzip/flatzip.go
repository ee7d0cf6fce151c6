// Package flatzip provides an archiver adapter using the archive/zip package.
// Members are written flat: every asset lands at the archive root under its
// logical name, with no directory entries.
package flatzip

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mkowalski/monopack/internal/ports"
)

// FlatZip implements ports.Archiver using archive/zip.
type FlatZip struct{}

// New creates a new FlatZip adapter.
func New() *FlatZip {
	return &FlatZip{}
}

// WriteFlat writes the assets to a new archive at destPath, in the given
// order. The collision pre-pass runs before the file is created, so a
// collision never leaves a partial archive behind.
func (a *FlatZip) WriteFlat(destPath string, assets []ports.Asset, overwrite bool) (int, error) {
	if err := checkCollisions(assets); err != nil {
		return 0, err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		// O_EXCL makes the existence check atomic with creation.
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	zipFile, err := os.OpenFile(destPath, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return 0, fmt.Errorf("%w: %s", ports.ErrOutputExists, destPath)
		}
		return 0, err
	}

	count, err := writeMembers(zipFile, assets)
	if err != nil {
		_ = zipFile.Close()
		_ = os.Remove(destPath)
		return 0, err
	}

	if err := zipFile.Close(); err != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("closing archive: %w", err)
	}

	return count, nil
}

// checkCollisions rejects asset sets where two entries flatten to the same
// name. Detection happens up front, never mid-write.
func checkCollisions(assets []ports.Asset) error {
	seen := make(map[string]string, len(assets))
	for _, asset := range assets {
		if first, ok := seen[asset.Name]; ok {
			return &ports.NameCollisionError{
				Name:   asset.Name,
				First:  first,
				Second: asset.SourcePath,
			}
		}
		seen[asset.Name] = asset.SourcePath
	}
	return nil
}

func writeMembers(zipFile *os.File, assets []ports.Asset) (int, error) {
	w := zip.NewWriter(zipFile)
	count := 0

	for _, asset := range assets {
		info, err := os.Stat(asset.SourcePath)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", asset.SourcePath, err)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return 0, fmt.Errorf("header for %s: %w", asset.Name, err)
		}
		header.Name = asset.Name
		header.Method = zip.Deflate

		writer, err := w.CreateHeader(header)
		if err != nil {
			return 0, fmt.Errorf("creating member %s: %w", asset.Name, err)
		}

		file, err := os.Open(asset.SourcePath)
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", asset.SourcePath, err)
		}

		_, copyErr := io.Copy(writer, file)
		_ = file.Close()

		if copyErr != nil {
			return 0, fmt.Errorf("writing member %s: %w", asset.Name, copyErr)
		}
		count++
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("closing zip writer: %w", err)
	}
	return count, nil
}

// List returns a map of member names to their info from the archive.
func (a *FlatZip) List(archivePath string) (map[string]ports.MemberInfo, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	members := make(map[string]ports.MemberInfo)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		// Safe conversion: check for overflow before uint64 -> int64
		size := int64(0)
		if f.UncompressedSize64 <= math.MaxInt64 {
			size = int64(f.UncompressedSize64)
		}
		members[f.Name] = ports.MemberInfo{
			Size:  size,
			CRC32: f.CRC32,
		}
	}

	return members, nil
}

// Compile-time check that FlatZip implements ports.Archiver.
var _ ports.Archiver = (*FlatZip)(nil)
