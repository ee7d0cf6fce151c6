// Package manifest records the archives this tool has produced, one manifest
// per output directory.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Entry describes one produced archive.
type Entry struct {
	Version   string    `json:"version"`
	File      string    `json:"file"`
	URL       string    `json:"url"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	Members   int       `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// Manifest is the record of all archives in an output directory.
type Manifest struct {
	Entries []Entry `json:"archives"`
}

// Path returns the manifest location for an output directory.
func Path(outputDir string) string {
	return filepath.Join(outputDir, "manifest.json")
}

// Load reads the manifest for outputDir, returning an empty manifest when
// none exists yet.
func Load(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(outputDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{Entries: []Entry{}}, nil
		}
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest for outputDir.
func (m *Manifest) Save(outputDir string) error {
	path := Path(outputDir)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Add appends an entry, replacing any previous entry for the same version so
// a re-run with overwrite keeps one record per version.
func (m *Manifest) Add(entry Entry) {
	for i := range m.Entries {
		if m.Entries[i].Version == entry.Version {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Latest returns the most recently added entry, or nil when empty.
func (m *Manifest) Latest() *Entry {
	if len(m.Entries) == 0 {
		return nil
	}
	return &m.Entries[len(m.Entries)-1]
}

// Find returns the entry for a version, or nil.
func (m *Manifest) Find(version string) *Entry {
	for i := range m.Entries {
		if m.Entries[i].Version == version {
			return &m.Entries[i]
		}
	}
	return nil
}

// ComputeSHA256 calculates the SHA256 hash of a file.
func ComputeSHA256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
