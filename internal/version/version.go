// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const devVersion = "0.0.0-development"

// Set with -ldflags "-X parcel-owners/internal/version.Version=..." at
// release time.
var (
	Version   = devVersion
	GitCommit = "unknown"
	BuildDate = "unknown"

	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Modified  bool   `json:"modified,omitempty"`
}

// Current returns the linker-provided values. A development binary built
// with `go install` falls back to the module version and VCS stamps that
// the toolchain embeds.
func Current() Build {
	b := Build{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		Platform:  Platform,
	}
	if Version != devVersion {
		return b
	}

	info, ok := readBuildInfo()
	if !ok {
		return b
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.BuildDate == "unknown" {
				b.BuildDate = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// Info returns a one-line description of the binary.
func Info() string {
	b := Current()
	commit := b.Commit
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("parcel-owners %s (commit: %s, built: %s, go: %s, platform: %s)",
		b.Version, commit, b.BuildDate, b.GoVersion, b.Platform)
}

// Short returns just the version number
func Short() string {
	return Current().Version
}
