// Package verify checks produced archives against their manifest records and
// compares the member sets of two archives.
package verify

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkowalski/monopack/internal/adapters/flatzip"
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/manifest"
	"github.com/mkowalski/monopack/internal/ports"
	"github.com/mkowalski/monopack/internal/unityver"
)

// Service provides verification operations with injected dependencies.
type Service struct {
	archiver ports.Archiver
}

// NewService creates a verification service with the given dependencies.
func NewService(archiver ports.Archiver) *Service {
	return &Service{archiver: archiver}
}

// NewDefaultService creates a verification service with real production
// dependencies.
func NewDefaultService() *Service {
	return NewService(flatzip.New())
}

// Verify checks one recorded archive: the file's checksum must match the
// manifest, every member must sit at the archive root, and the version's
// required assemblies must be present.
func (s *Service) Verify(cfg *config.Config, version string) error {
	outputDir := config.ExpandPath(cfg.OutputDir)

	m, err := manifest.Load(outputDir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	var entry *manifest.Entry
	if version == "" {
		entry = m.Latest()
	} else {
		entry = m.Find(version)
	}
	if entry == nil {
		if version == "" {
			return fmt.Errorf("no archives recorded in %s", outputDir)
		}
		return fmt.Errorf("archive not recorded: %s", version)
	}

	archivePath := filepath.Join(outputDir, entry.File)
	actualChecksum, err := manifest.ComputeSHA256(archivePath)
	if err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}
	if actualChecksum != entry.SHA256 {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", entry.File, entry.SHA256, actualChecksum)
	}

	members, err := s.archiver.List(archivePath)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if len(members) != entry.Members {
		return fmt.Errorf("member count mismatch for %s: expected %d, got %d", entry.File, entry.Members, len(members))
	}
	for name := range members {
		if strings.Contains(name, "/") {
			return fmt.Errorf("archive not flat: member %q sits in a subdirectory", name)
		}
	}

	target, err := unityver.Resolve(entry.Version)
	if err != nil {
		return fmt.Errorf("parsing recorded version: %w", err)
	}
	for _, required := range target.RequiredAssemblies() {
		if _, ok := members[required]; !ok {
			return fmt.Errorf("required assembly missing from %s: %s", entry.File, required)
		}
	}

	return nil
}

// ListVersions returns all recorded archives, newest first.
func (s *Service) ListVersions(cfg *config.Config) ([]manifest.Entry, error) {
	outputDir := config.ExpandPath(cfg.OutputDir)

	m, err := manifest.Load(outputDir)
	if err != nil {
		return nil, err
	}

	entries := make([]manifest.Entry, len(m.Entries))
	copy(entries, m.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// MemberChange represents one difference between two archives.
type MemberChange struct {
	Name   string
	Status rune // 'M' modified, 'A' added, 'D' deleted
	Size1  int64
	Size2  int64
}

// DiffResult contains the comparison between two recorded archives.
type DiffResult struct {
	Version1 string
	Version2 string
	Changes  []MemberChange
	Added    int
	Modified int
	Deleted  int
}

// Diff compares the member sets of two recorded archives.
func (s *Service) Diff(cfg *config.Config, version1, version2 string) (*DiffResult, error) {
	outputDir := config.ExpandPath(cfg.OutputDir)

	m, err := manifest.Load(outputDir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	entry1 := m.Find(version1)
	if entry1 == nil {
		return nil, fmt.Errorf("archive not recorded: %s", version1)
	}
	entry2 := m.Find(version2)
	if entry2 == nil {
		return nil, fmt.Errorf("archive not recorded: %s", version2)
	}

	members1, err := s.archiver.List(filepath.Join(outputDir, entry1.File))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry1.File, err)
	}
	members2, err := s.archiver.List(filepath.Join(outputDir, entry2.File))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry2.File, err)
	}

	result := &DiffResult{
		Version1: version1,
		Version2: version2,
	}

	allNames := make(map[string]bool)
	for name := range members1 {
		allNames[name] = true
	}
	for name := range members2 {
		allNames[name] = true
	}

	for name := range allNames {
		info1, in1 := members1[name]
		info2, in2 := members2[name]

		var change MemberChange
		change.Name = name

		switch {
		case in1 && !in2:
			change.Status = 'D'
			change.Size1 = info1.Size
			result.Deleted++
		case !in1 && in2:
			change.Status = 'A'
			change.Size2 = info2.Size
			result.Added++
		case info1.CRC32 != info2.CRC32 || info1.Size != info2.Size:
			change.Status = 'M'
			change.Size1 = info1.Size
			change.Size2 = info2.Size
			result.Modified++
		default:
			// Unchanged, skip
			continue
		}

		result.Changes = append(result.Changes, change)
	}

	// Sort changes: M, A, D then by name
	sort.Slice(result.Changes, func(i, j int) bool {
		if result.Changes[i].Status != result.Changes[j].Status {
			order := map[rune]int{'M': 0, 'A': 1, 'D': 2}
			return order[result.Changes[i].Status] < order[result.Changes[j].Status]
		}
		return result.Changes[i].Name < result.Changes[j].Name
	})

	return result, nil
}

// ============================================================================
// Backward-compatible package-level functions using default service
// ============================================================================

var defaultService = NewDefaultService()

// Verify checks one recorded archive using real production dependencies.
func Verify(cfg *config.Config, version string) error {
	return defaultService.Verify(cfg, version)
}

// ListVersions returns all recorded archives, newest first.
func ListVersions(cfg *config.Config) ([]manifest.Entry, error) {
	return defaultService.ListVersions(cfg)
}

// Diff compares the member sets of two recorded archives.
func Diff(cfg *config.Config, version1, version2 string) (*DiffResult, error) {
	return defaultService.Diff(cfg, version1, version2)
}
