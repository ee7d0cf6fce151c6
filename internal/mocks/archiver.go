package mocks

import (
	"github.com/mkowalski/monopack/internal/ports"
)

// WriteFlatCall records one WriteFlat invocation.
type WriteFlatCall struct {
	DestPath  string
	Assets    []ports.Asset
	Overwrite bool
}

// MockArchiver implements ports.Archiver in memory.
type MockArchiver struct {
	// WriteCalls records every WriteFlat invocation.
	WriteCalls []WriteFlatCall
	// WriteErr, when set, fails WriteFlat.
	WriteErr error
	// MembersByPath backs List.
	MembersByPath map[string]map[string]ports.MemberInfo
	// ListErr, when set, fails List.
	ListErr error
}

// NewMockArchiver creates an empty mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{
		MembersByPath: make(map[string]map[string]ports.MemberInfo),
	}
}

// WriteFlat records the call and reports len(assets) members written.
func (m *MockArchiver) WriteFlat(destPath string, assets []ports.Asset, overwrite bool) (int, error) {
	m.WriteCalls = append(m.WriteCalls, WriteFlatCall{DestPath: destPath, Assets: assets, Overwrite: overwrite})
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	members := make(map[string]ports.MemberInfo, len(assets))
	for _, a := range assets {
		members[a.Name] = ports.MemberInfo{}
	}
	m.MembersByPath[destPath] = members
	return len(assets), nil
}

// List returns the canned members for an archive path.
func (m *MockArchiver) List(archivePath string) (map[string]ports.MemberInfo, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.MembersByPath[archivePath], nil
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
