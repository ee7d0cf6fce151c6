package verify

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkowalski/monopack/internal/adapters/flatzip"
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/manifest"
	"github.com/mkowalski/monopack/internal/ports"
)

// writeArchive produces a flat archive from the given name->content map and
// records it in the manifest for outputDir.
func writeArchive(t *testing.T, outputDir, version, file string, contents map[string]string) {
	t.Helper()

	srcDir := t.TempDir()
	var assets []ports.Asset
	for name, content := range contents {
		src := filepath.Join(srcDir, name)
		if err := os.WriteFile(src, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		assets = append(assets, ports.Asset{SourcePath: src, Name: name})
	}

	archivePath := filepath.Join(outputDir, file)
	count, err := flatzip.New().WriteFlat(archivePath, assets, true)
	if err != nil {
		t.Fatalf("writing fixture archive: %v", err)
	}

	sum, err := manifest.ComputeSHA256(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		t.Fatal(err)
	}

	m, err := manifest.Load(outputDir)
	if err != nil {
		t.Fatal(err)
	}
	m.Add(manifest.Entry{
		Version:   version,
		File:      file,
		URL:       "https://download.unity3d.com/download_unity/" + version + "/MacEditorTargetInstaller/test.pkg",
		SHA256:    sum,
		SizeBytes: info.Size(),
		Members:   count,
		CreatedAt: time.Now(),
	})
	if err := m.Save(outputDir); err != nil {
		t.Fatal(err)
	}
}

func modernContents() map[string]string {
	return map[string]string{
		"UnityEngine.dll":            "engine",
		"UnityEngine.CoreModule.dll": "core",
		"mscorlib.dll":               "corlib",
	}
}

func TestVerifyOK(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "6000.0.58f2", "6000.0.58.zip", modernContents())

	svc := NewDefaultService()
	cfg := &config.Config{OutputDir: outputDir}

	if err := svc.Verify(cfg, "6000.0.58f2"); err != nil {
		t.Errorf("Verify failed on a good archive: %v", err)
	}
	// Empty version verifies the latest entry.
	if err := svc.Verify(cfg, ""); err != nil {
		t.Errorf("Verify(latest) failed: %v", err)
	}
}

func TestVerifyChecksumMismatch(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "6000.0.58f2", "6000.0.58.zip", modernContents())

	// Corrupt the archive after recording it.
	archivePath := filepath.Join(outputDir, "6000.0.58.zip")
	f, err := os.OpenFile(archivePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("trailing garbage")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	err = NewDefaultService().Verify(&config.Config{OutputDir: outputDir}, "6000.0.58f2")
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("expected checksum mismatch, got %v", err)
	}
}

func TestVerifyMissingRequiredAssembly(t *testing.T) {
	outputDir := t.TempDir()
	contents := modernContents()
	delete(contents, "UnityEngine.CoreModule.dll")
	writeArchive(t, outputDir, "6000.0.58f2", "6000.0.58.zip", contents)

	err := NewDefaultService().Verify(&config.Config{OutputDir: outputDir}, "6000.0.58f2")
	if err == nil || !strings.Contains(err.Error(), "UnityEngine.CoreModule.dll") {
		t.Errorf("expected missing-assembly failure, got %v", err)
	}
}

func TestVerifyLegacyRequiresOnlyEngine(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "5.6.7f1", "5.6.7.zip", map[string]string{
		"UnityEngine.dll": "engine",
		"mscorlib.dll":    "corlib",
	})

	if err := NewDefaultService().Verify(&config.Config{OutputDir: outputDir}, "5.6.7f1"); err != nil {
		t.Errorf("Verify failed on a good legacy archive: %v", err)
	}
}

func TestVerifyRejectsNonFlatArchive(t *testing.T) {
	outputDir := t.TempDir()
	archivePath := filepath.Join(outputDir, "6000.0.58.zip")

	// Build a nested archive by hand; the production writer refuses to.
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"UnityEngine.dll", "UnityEngine.CoreModule.dll", "nested/extra.dll"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	sum, err := manifest.ComputeSHA256(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	m, _ := manifest.Load(outputDir)
	m.Add(manifest.Entry{Version: "6000.0.58f2", File: "6000.0.58.zip", SHA256: sum, Members: 3, CreatedAt: time.Now()})
	if err := m.Save(outputDir); err != nil {
		t.Fatal(err)
	}

	err = NewDefaultService().Verify(&config.Config{OutputDir: outputDir}, "6000.0.58f2")
	if err == nil || !strings.Contains(err.Error(), "not flat") {
		t.Errorf("expected not-flat failure, got %v", err)
	}
}

func TestVerifyUnknownVersion(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "6000.0.58f2", "6000.0.58.zip", modernContents())

	err := NewDefaultService().Verify(&config.Config{OutputDir: outputDir}, "2021.3.1f1")
	if err == nil || !strings.Contains(err.Error(), "not recorded") {
		t.Errorf("expected not-recorded failure, got %v", err)
	}
}

func TestVerifyEmptyManifest(t *testing.T) {
	err := NewDefaultService().Verify(&config.Config{OutputDir: t.TempDir()}, "")
	if err == nil || !strings.Contains(err.Error(), "no archives") {
		t.Errorf("expected no-archives failure, got %v", err)
	}
}

func TestDiff(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "2021.3.1f1", "2021.3.1.zip", map[string]string{
		"UnityEngine.dll":            "engine v1",
		"UnityEngine.CoreModule.dll": "core",
		"Removed.dll":                "gone later",
	})
	writeArchive(t, outputDir, "2022.3.4f1", "2022.3.4.zip", map[string]string{
		"UnityEngine.dll":            "engine v2 with changes",
		"UnityEngine.CoreModule.dll": "core",
		"Added.dll":                  "new",
	})

	result, err := NewDefaultService().Diff(&config.Config{OutputDir: outputDir}, "2021.3.1f1", "2022.3.4f1")
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if result.Added != 1 || result.Deleted != 1 || result.Modified != 1 {
		t.Errorf("counts = A:%d M:%d D:%d, expected 1 each", result.Added, result.Modified, result.Deleted)
	}

	byName := make(map[string]rune)
	for _, c := range result.Changes {
		byName[c.Name] = c.Status
	}
	if byName["Added.dll"] != 'A' {
		t.Errorf("Added.dll status = %q", byName["Added.dll"])
	}
	if byName["Removed.dll"] != 'D' {
		t.Errorf("Removed.dll status = %q", byName["Removed.dll"])
	}
	if byName["UnityEngine.dll"] != 'M' {
		t.Errorf("UnityEngine.dll status = %q", byName["UnityEngine.dll"])
	}
	if _, present := byName["UnityEngine.CoreModule.dll"]; present {
		t.Error("unchanged member must not appear in the diff")
	}
}

func TestDiffUnknownVersion(t *testing.T) {
	outputDir := t.TempDir()
	writeArchive(t, outputDir, "2021.3.1f1", "2021.3.1.zip", modernContents())

	if _, err := NewDefaultService().Diff(&config.Config{OutputDir: outputDir}, "2021.3.1f1", "2099.1.1f1"); err == nil {
		t.Error("expected failure for an unrecorded version")
	}
}

func TestListVersionsNewestFirst(t *testing.T) {
	outputDir := t.TempDir()

	m, err := manifest.Load(outputDir)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Add(manifest.Entry{Version: "2021.3.1f1", File: "2021.3.1.zip", CreatedAt: base})
	m.Add(manifest.Entry{Version: "2022.3.4f1", File: "2022.3.4.zip", CreatedAt: base.Add(time.Hour)})
	m.Add(manifest.Entry{Version: "5.6.7f1", File: "5.6.7.zip", CreatedAt: base.Add(2 * time.Hour)})
	if err := m.Save(outputDir); err != nil {
		t.Fatal(err)
	}

	entries, err := NewDefaultService().ListVersions(&config.Config{OutputDir: outputDir})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, expected 3", len(entries))
	}
	want := []string{"5.6.7f1", "2022.3.4f1", "2021.3.1f1"}
	for i, v := range want {
		if entries[i].Version != v {
			t.Errorf("entries[%d].Version = %q, expected %q", i, entries[i].Version, v)
		}
	}
}
