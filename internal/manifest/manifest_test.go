package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissing(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed for missing manifest: %v", err)
	}
	if len(m.Entries) != 0 {
		t.Errorf("expected empty manifest, got %d entries", len(m.Entries))
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	m := &Manifest{}
	m.Add(Entry{
		Version:   "6000.0.58f2",
		File:      "6000.0.58.zip",
		URL:       "https://download.unity3d.com/download_unity/6000.0.58f2/MacEditorTargetInstaller/UnitySetup-Windows-Mono-Support-for-Editor-6000.0.58f2.pkg",
		SHA256:    "abc123",
		SizeBytes: 1024,
		Members:   42,
		CreatedAt: time.Now(),
	})

	if err := m.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("entries = %d, expected 1", len(loaded.Entries))
	}
	if loaded.Entries[0].Version != "6000.0.58f2" {
		t.Errorf("Version = %q, expected 6000.0.58f2", loaded.Entries[0].Version)
	}
	if loaded.Entries[0].Members != 42 {
		t.Errorf("Members = %d, expected 42", loaded.Entries[0].Members)
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for corrupt manifest")
	}
}

func TestAddReplacesSameVersion(t *testing.T) {
	m := &Manifest{}
	m.Add(Entry{Version: "2019.4.40f1", SHA256: "first"})
	m.Add(Entry{Version: "6000.0.58f2", SHA256: "other"})
	m.Add(Entry{Version: "2019.4.40f1", SHA256: "second"})

	if len(m.Entries) != 2 {
		t.Fatalf("entries = %d, expected 2", len(m.Entries))
	}
	if e := m.Find("2019.4.40f1"); e == nil || e.SHA256 != "second" {
		t.Errorf("re-adding a version should replace its entry, got %+v", e)
	}
}

func TestLatestAndFind(t *testing.T) {
	m := &Manifest{}
	if m.Latest() != nil {
		t.Error("Latest on empty manifest should be nil")
	}
	if m.Find("6000.0.58f2") != nil {
		t.Error("Find on empty manifest should be nil")
	}

	m.Add(Entry{Version: "2019.4.40f1"})
	m.Add(Entry{Version: "6000.0.58f2"})

	if got := m.Latest(); got == nil || got.Version != "6000.0.58f2" {
		t.Errorf("Latest = %+v, expected 6000.0.58f2", got)
	}
	if got := m.Find("2019.4.40f1"); got == nil {
		t.Error("Find failed for existing version")
	}
}

func TestComputeSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.zip")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	sum, err := ComputeSHA256(path)
	if err != nil {
		t.Fatalf("ComputeSHA256 failed: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if sum != want {
		t.Errorf("sum = %q, expected %q", sum, want)
	}

	if _, err := ComputeSHA256(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
