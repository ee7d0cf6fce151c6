package mocks

import (
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/ports"
)

// MockTUIService implements ports.TUIService for TUI model tests.
type MockTUIService struct {
	ConfigResult *config.Config
	ConfigErr    error
	Archives     []ports.TUIArchiveInfo
	ArchivesErr  error
	VerifyErr    error
	// VerifyCalls records the versions verified in order.
	VerifyCalls []string
	DiffResult  *ports.TUIDiffInfo
	DiffErr     error
	// DiffCalls records the version pairs compared in order.
	DiffCalls [][2]string
}

// NewMockTUIService creates an empty mock TUI service.
func NewMockTUIService() *MockTUIService {
	return &MockTUIService{
		ConfigResult: config.DefaultConfig(),
	}
}

// LoadConfig returns the canned configuration.
func (m *MockTUIService) LoadConfig() (*config.Config, error) {
	if m.ConfigErr != nil {
		return nil, m.ConfigErr
	}
	return m.ConfigResult, nil
}

// ListArchives returns the canned archive list.
func (m *MockTUIService) ListArchives(cfg *config.Config) ([]ports.TUIArchiveInfo, error) {
	if m.ArchivesErr != nil {
		return nil, m.ArchivesErr
	}
	return m.Archives, nil
}

// VerifyArchive records the call and returns the canned error.
func (m *MockTUIService) VerifyArchive(cfg *config.Config, version string) error {
	m.VerifyCalls = append(m.VerifyCalls, version)
	return m.VerifyErr
}

// DiffArchives records the call and returns the canned result.
func (m *MockTUIService) DiffArchives(cfg *config.Config, version1, version2 string) (*ports.TUIDiffInfo, error) {
	m.DiffCalls = append(m.DiffCalls, [2]string{version1, version2})
	if m.DiffErr != nil {
		return nil, m.DiffErr
	}
	if m.DiffResult != nil {
		return m.DiffResult, nil
	}
	return &ports.TUIDiffInfo{Version1: version1, Version2: version2}, nil
}

// Compile-time check that MockTUIService implements ports.TUIService.
var _ ports.TUIService = (*MockTUIService)(nil)
