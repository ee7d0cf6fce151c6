package ports

import (
	"time"

	"github.com/mkowalski/monopack/internal/config"
)

// TUIArchiveInfo contains produced-archive metadata for display.
type TUIArchiveInfo struct {
	Version   string
	File      string
	Size      int64
	Members   int
	CreatedAt time.Time
}

// TUIMemberChange is one member difference between two archives.
type TUIMemberChange struct {
	Name   string
	Status rune // 'M' modified, 'A' added, 'D' deleted
	Size1  int64
	Size2  int64
}

// TUIDiffInfo is the member-set comparison of two archives.
type TUIDiffInfo struct {
	Version1 string
	Version2 string
	Changes  []TUIMemberChange
	Added    int
	Modified int
	Deleted  int
}

// TUIService provides operations needed by the TUI.
// This abstraction allows the TUI to be tested without real filesystem operations.
type TUIService interface {
	// LoadConfig loads the application configuration.
	LoadConfig() (*config.Config, error)

	// ListArchives returns all produced archives recorded in the manifest.
	ListArchives(cfg *config.Config) ([]TUIArchiveInfo, error)

	// VerifyArchive verifies the archive produced for the given version.
	// Returns nil if verified successfully, error otherwise.
	VerifyArchive(cfg *config.Config, version string) error

	// DiffArchives compares the member sets of two recorded archives.
	DiffArchives(cfg *config.Config, version1, version2 string) (*TUIDiffInfo, error)
}
