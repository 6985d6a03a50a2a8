// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func TestCurrent_LinkerValuesWin(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.2.3"
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}})

	assert.Equal(t, "1.2.3", Short())
	assert.Contains(t, Info(), "parcel-owners 1.2.3 (commit: unknown")
}

func TestCurrent_BuildInfoFallback(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	b := Current()
	assert.Equal(t, "v0.4.0", b.Version)
	assert.Equal(t, "abc123", b.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", b.BuildDate)
	assert.True(t, b.Modified)
	assert.Contains(t, Info(), "commit: abc123-dirty")
}

func TestCurrent_DevelBuild(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, devVersion, Short())

	stubBuildInfo(t, nil)
	assert.Equal(t, Platform, Current().Platform)
	assert.Equal(t, devVersion, Short())
}
