// Package tuisvc provides the real implementation of ports.TUIService.
package tuisvc

import (
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/ports"
	"github.com/mkowalski/monopack/internal/verify"
)

// Service implements ports.TUIService backed by the manifest and the verify
// service.
type Service struct {
	verifier *verify.Service
}

// New creates a new TUI service.
func New() *Service {
	return &Service{verifier: verify.NewDefaultService()}
}

// LoadConfig loads the application configuration.
func (s *Service) LoadConfig() (*config.Config, error) {
	return config.Load()
}

// ListArchives returns all recorded archives, newest first.
func (s *Service) ListArchives(cfg *config.Config) ([]ports.TUIArchiveInfo, error) {
	entries, err := s.verifier.ListVersions(cfg)
	if err != nil {
		return nil, err
	}

	result := make([]ports.TUIArchiveInfo, len(entries))
	for i, e := range entries {
		result[i] = ports.TUIArchiveInfo{
			Version:   e.Version,
			File:      e.File,
			Size:      e.SizeBytes,
			Members:   e.Members,
			CreatedAt: e.CreatedAt,
		}
	}
	return result, nil
}

// VerifyArchive verifies the archive recorded for the given version.
func (s *Service) VerifyArchive(cfg *config.Config, version string) error {
	return s.verifier.Verify(cfg, version)
}

// DiffArchives compares the member sets of two recorded archives.
func (s *Service) DiffArchives(cfg *config.Config, version1, version2 string) (*ports.TUIDiffInfo, error) {
	result, err := s.verifier.Diff(cfg, version1, version2)
	if err != nil {
		return nil, err
	}

	info := &ports.TUIDiffInfo{
		Version1: result.Version1,
		Version2: result.Version2,
		Added:    result.Added,
		Modified: result.Modified,
		Deleted:  result.Deleted,
	}
	for _, c := range result.Changes {
		info.Changes = append(info.Changes, ports.TUIMemberChange{
			Name:   c.Name,
			Status: c.Status,
			Size1:  c.Size1,
			Size2:  c.Size2,
		})
	}
	return info, nil
}

// Compile-time check that Service implements ports.TUIService.
var _ ports.TUIService = (*Service)(nil)
