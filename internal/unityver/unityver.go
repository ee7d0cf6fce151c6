// Package unityver parses Unity editor version strings and resolves them to
// the download location and internal layout conventions of the Windows Mono
// support installer published for that version.
//
// Resolution is pure: no network or filesystem access happens here. Version
// strings that do not match a recognized historical format fail closed with
// ErrInvalidVersion before any I/O is attempted elsewhere.
package unityver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const (
	// releaseHost serves final and patch releases.
	releaseHost = "https://download.unity3d.com/download_unity/"

	// betaHost serves beta and alpha releases.
	betaHost = "https://beta.unity3d.com/download/"

	// installerDir is the path segment the support installers live under.
	installerDir = "MacEditorTargetInstaller"
)

// ErrInvalidVersion indicates a version string outside the recognized grammar
// or outside the supported release history.
var ErrInvalidVersion = errors.New("invalid version format")

// Channel is the release channel encoded in the version suffix.
type Channel int

const (
	ChannelFinal Channel = iota // f suffix
	ChannelPatch                // p suffix
	ChannelBeta                 // b suffix
	ChannelAlpha                // a suffix
)

// String returns the suffix letter for the channel.
func (c Channel) String() string {
	switch c {
	case ChannelFinal:
		return "f"
	case ChannelPatch:
		return "p"
	case ChannelBeta:
		return "b"
	case ChannelAlpha:
		return "a"
	}
	return "?"
}

// Era groups versions sharing URL and internal layout conventions.
type Era int

const (
	// EraLegacy covers 5.x through 2017.x: a single Windows support
	// installer, conventional "Payload" inner container.
	EraLegacy Era = iota

	// EraModern covers 2018.x onward, including the 6000+ scheme: the
	// Windows target split into Mono and IL2CPP installers and the inner
	// container was renamed "Payload~".
	EraModern
)

// String returns a human-readable era name.
func (e Era) String() string {
	if e == EraLegacy {
		return "legacy"
	}
	return "modern"
}

// ContainerFormat tags the nested container kinds the pipeline encounters.
type ContainerFormat int

const (
	// FormatInstallerPkg is the downloaded macOS-style installer package.
	FormatInstallerPkg ContainerFormat = iota

	// FormatPayloadArchive is the inner payload container holding the
	// actual runtime files.
	FormatPayloadArchive
)

// Version is the parsed form of a Unity version string such as "6000.0.58f2".
type Version struct {
	Major    int
	Minor    int
	Patch    int
	Channel  Channel
	Revision int
	Raw      string
}

// String returns the original version string.
func (v Version) String() string { return v.Raw }

// ShortString returns the version without the channel suffix, e.g. "6000.0.58".
// Used for filesystem-friendly names.
func (v Version) ShortString() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Era returns the layout-convention bucket this version falls into.
func (v Version) Era() Era {
	if v.Major >= 2018 {
		return EraModern
	}
	return EraLegacy
}

// Target is the resolved download location plus the layout conventions that
// apply to the version's era. Derived deterministically from the version.
type Target struct {
	Version   Version
	URL       string
	Installer string
	Format    ContainerFormat
}

// PayloadName returns the exact name of the inner payload container for the
// target's era.
func (t Target) PayloadName() string {
	if t.Version.Era() == EraModern {
		return "Payload~"
	}
	return "Payload"
}

// PayloadGlob returns the bounded fallback pattern for locating the inner
// payload when the exact name is absent. One directory level only.
func (t Target) PayloadGlob() string { return "Payload*" }

// ManagedGlobs returns the convention-table patterns for the directory that
// holds the managed assemblies, ordered from exact to loosest. Patterns are
// relative to the extracted payload root.
func (t Target) ManagedGlobs() []string {
	if t.Version.Era() == EraModern {
		return []string{
			"Variations/win64_nondevelopment_mono/Data/Managed",
			"Variations/*_mono/Data/Managed",
			"Variations/*/Data/Managed",
		}
	}
	return []string{
		"Variations/win64_nondevelopment/Data/Managed",
		"Variations/*/Data/Managed",
		"Data/Managed",
	}
}

// RequiredAssemblies returns the assembly names that must be present after
// extraction. A missing member means the version's internal structure differs
// from the convention table and the pipeline must not proceed.
func (t Target) RequiredAssemblies() []string {
	if t.Version.Era() == EraModern {
		return []string{"UnityEngine.dll", "UnityEngine.CoreModule.dll"}
	}
	return []string{"UnityEngine.dll"}
}

// versionRe matches major.minor.patch plus a channel letter and revision,
// e.g. "2019.4.40f1" or "6000.0.58f2".
var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)([abpf])(\d+)$`)

// Parse parses a version string. It performs no I/O.
func Parse(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q does not match major.minor.patch<channel><revision>", ErrInvalidVersion, s)
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	revision, _ := strconv.Atoi(m[5])

	var channel Channel
	switch m[4] {
	case "f":
		channel = ChannelFinal
	case "p":
		channel = ChannelPatch
	case "b":
		channel = ChannelBeta
	case "a":
		channel = ChannelAlpha
	}

	v := Version{
		Major:    major,
		Minor:    minor,
		Patch:    patch,
		Channel:  channel,
		Revision: revision,
		Raw:      s,
	}

	// Versions before 5.0 predate the per-target support installers; there
	// is nothing to download for them.
	if v.Major < 5 {
		return Version{}, fmt.Errorf("%w: %s predates per-target support installers", ErrInvalidVersion, s)
	}

	// Patch releases ended with the 2017 cycle. A modern version carrying a
	// patch suffix matches no known convention; guessing a URL for it could
	// silently download unrelated content, so it is rejected outright.
	if v.Era() == EraModern && v.Channel == ChannelPatch {
		return Version{}, fmt.Errorf("%w: patch channel does not exist for %d.x releases", ErrInvalidVersion, v.Major)
	}

	return v, nil
}

// Resolve parses a version string and derives its download target. Pure and
// deterministic: equal inputs always yield equal targets.
func Resolve(s string) (Target, error) {
	v, err := Parse(s)
	if err != nil {
		return Target{}, err
	}

	installer := installerName(v)

	host := releaseHost
	if v.Channel == ChannelBeta || v.Channel == ChannelAlpha {
		host = betaHost
	}

	return Target{
		Version:   v,
		URL:       host + v.Raw + "/" + installerDir + "/" + installer,
		Installer: installer,
		Format:    FormatInstallerPkg,
	}, nil
}

func installerName(v Version) string {
	if v.Era() == EraModern {
		return "UnitySetup-Windows-Mono-Support-for-Editor-" + v.Raw + ".pkg"
	}
	return "UnitySetup-Windows-Support-for-Editor-" + v.Raw + ".pkg"
}
