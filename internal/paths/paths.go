// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
)

const appName = "parcel-owners"

// GetConfigDir returns the parcel-owners configuration directory.
// PARCEL_OWNERS_CONFIG_DIR overrides XDG_CONFIG_HOME, which overrides ~/.config.
func GetConfigDir() string {
	if dir := os.Getenv("PARCEL_OWNERS_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".config", appName)
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetDataDir returns the directory holding the default sqlite sink.
// PARCEL_OWNERS_DATA_DIR overrides XDG_DATA_HOME, which overrides ~/.local/share.
func GetDataDir() string {
	if dir := os.Getenv("PARCEL_OWNERS_DATA_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultDatabaseFile is the sqlite file used when no DSN is configured.
func DefaultDatabaseFile() string {
	return filepath.Join(GetDataDir(), appName+".db")
}
