// Package locate finds the inner payload containers and the managed-assembly
// set inside extracted installer output, tolerating the layout variation
// between release eras. Searches are bounded by the era's convention table;
// there is never a recursive scan of unrelated content.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mkowalski/monopack/internal/ports"
	"github.com/mkowalski/monopack/internal/unityver"
)

// ErrAssetNotFound indicates the extracted output does not follow the
// version's expected internal layout. The pipeline never proceeds with a
// partial set; a transitional layout that matches neither convention table is
// reported rather than guessed at.
var ErrAssetNotFound = errors.New("expected asset not found in extracted output")

// Payloads returns the inner payload container(s) found directly under
// extractedRoot. The era's exact payload name is preferred; when absent, a
// single-level glob over Payload* is the bounded fallback.
func Payloads(extractedRoot string, target unityver.Target) ([]string, error) {
	exact := filepath.Join(extractedRoot, target.PayloadName())
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return []string{exact}, nil
	}

	matches, err := filepath.Glob(filepath.Join(extractedRoot, target.PayloadGlob()))
	if err != nil {
		return nil, err
	}

	var payloads []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			payloads = append(payloads, m)
		}
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: no %s container under %s", ErrAssetNotFound, target.PayloadName(), extractedRoot)
	}

	sort.Strings(payloads)
	return payloads, nil
}

// ManagedDir locates the directory holding the managed assemblies inside the
// extracted payload, trying the era's convention patterns from exact to
// loosest. Multiple matches for one pattern resolve to the lexically first,
// keeping location deterministic.
func ManagedDir(payloadRoot string, target unityver.Target) (string, error) {
	for _, pattern := range target.ManagedGlobs() {
		matches, err := filepath.Glob(filepath.Join(payloadRoot, filepath.FromSlash(pattern)))
		if err != nil {
			return "", err
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, statErr := os.Stat(m); statErr == nil && info.IsDir() {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no managed directory matches the %s-era conventions under %s",
		ErrAssetNotFound, target.Version.Era(), payloadRoot)
}

// Assets enumerates the managed-assembly files under managedDir as an ordered
// asset set: logical names are the flattened base names, ordering is by
// relative source path so the same tree always yields the same set. Duplicate
// logical names and missing era-required assemblies are fatal.
func Assets(managedDir string, target unityver.Target) ([]ports.Asset, error) {
	var assets []ports.Asset

	err := filepath.WalkDir(managedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		assets = append(assets, ports.Asset{
			SourcePath: path,
			Name:       d.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: managed directory %s is empty", ErrAssetNotFound, managedDir)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].SourcePath < assets[j].SourcePath })

	seen := make(map[string]string, len(assets))
	for _, a := range assets {
		if first, ok := seen[a.Name]; ok {
			return nil, &ports.NameCollisionError{Name: a.Name, First: first, Second: a.SourcePath}
		}
		seen[a.Name] = a.SourcePath
	}

	for _, required := range target.RequiredAssemblies() {
		if _, ok := seen[required]; !ok {
			return nil, fmt.Errorf("%w: required assembly %s missing from %s", ErrAssetNotFound, required, managedDir)
		}
	}

	return assets, nil
}
