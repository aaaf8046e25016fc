// Package version exposes build information set through -ldflags.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Set at build time:
//
//	-ldflags "-X github.com/entitleops/licensesync/internal/shared/version.Version=1.4.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Release   bool   `json:"release"`
}

// Get returns the build information of the running binary.
func Get() Info {
	v := Normalize(Version)
	return Info{
		Version:   v,
		Commit:    Commit,
		BuildTime: BuildTime,
		Release:   semver.IsValid(v) && semver.Prerelease(v) == "",
	}
}

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3", "dev" -> "dev"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" || version == "dev" {
		return version
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// String formats the info for --version output.
func (i Info) String() string {
	return i.Version + " (commit " + i.Commit + ", built " + i.BuildTime + ")"
}
