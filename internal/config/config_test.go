// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcel-owners/internal/owners"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Defaults.Format)
	assert.Equal(t, "auto", cfg.Defaults.NameOrder)
	assert.Equal(t, "sqlite", cfg.Sink.Driver)
	assert.Equal(t, []string{"assessor_roll", "deed_index"}, cfg.ListProfiles())
	assert.Equal(t, "last_first", cfg.GetProfile("assessor_roll").NameOrder)
	assert.Nil(t, cfg.GetProfile("missing"))
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "parcel-owners.yaml", `
defaults:
  format: text
  name_order: first_last
  workers: 3
  vocabulary: county.yaml
sink:
  driver: oracle
  host: db.example.com
  service: PARCELS
profiles:
  travis:
    description: Travis County roll
    name_order: last_first
    extend:
      company_keywords: [RANCH]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Defaults.Format)
	assert.Equal(t, "first_last", cfg.Defaults.NameOrder)
	assert.Equal(t, 3, cfg.Defaults.Workers)
	assert.Equal(t, filepath.Join(dir, "county.yaml"), cfg.Defaults.Vocabulary)
	assert.Equal(t, "oracle", cfg.Sink.Driver)
	assert.Equal(t, "1521", cfg.Sink.Port)
	assert.Equal(t, []string{"assessor_roll", "deed_index", "travis"}, cfg.ListProfiles())

	travis := cfg.GetProfile("travis")
	require.NotNil(t, travis)
	require.NotNil(t, travis.Extend)
	assert.Equal(t, []string{"RANCH"}, travis.Extend.CompanyKeywords)
}

func TestLoadConfig_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "parcel-owners.toml", `
[defaults]
format = "yaml"
no_color = true

[sink]
dsn = "file:test.db"

[profiles.deed_index]
name_order = "first_last"
format = "text"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Defaults.Format)
	assert.True(t, cfg.Defaults.NoColor)
	assert.Equal(t, "file:test.db", cfg.Sink.DSN)
	assert.Equal(t, "text", cfg.GetProfile("deed_index").Format)
	assert.NotNil(t, cfg.GetProfile("assessor_roll"))
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"bad format", "defaults:\n  format: xml\n", ErrInvalidFormat},
		{"bad name order", "defaults:\n  name_order: sideways\n", ErrInvalidNameOrder},
		{"bad driver", "sink:\n  driver: mongo\n", ErrInvalidSinkDriver},
		{"bad profile order", "profiles:\n  x:\n    name_order: upside\n", ErrInvalidNameOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "c.yaml", tt.content)
			_, err := LoadConfig(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := LoadConfig(writeFile(t, dir, "broken.yaml", "defaults: [unclosed"))
	assert.ErrorContains(t, err, "error parsing config file")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "json", cfg.Defaults.Format)

	path := writeFile(t, t.TempDir(), "c.yaml", "defaults:\n  format: csv\n")
	cfg, err = LoadConfigOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Defaults.Format)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PARCEL_OWNERS_CONFIG_DIR", filepath.Join(dir, "none"))

	assert.Equal(t, "", FindConfigFile())

	writeFile(t, dir, ".parcel-owners.yaml", "defaults: {}\n")
	assert.Equal(t, ".parcel-owners.yaml", FindConfigFile())

	writeFile(t, dir, "parcel-owners.toml", "")
	assert.Equal(t, "parcel-owners.toml", FindConfigFile())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PARCEL_OWNERS_DB_PASSWORD", "s3cret")
	t.Setenv("PARCEL_OWNERS_SINK_DRIVER", "oracle")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Sink.Password)
	assert.Equal(t, "oracle", cfg.Sink.Driver)
}

func TestEffective(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "county.yaml", "company_keywords: [GRANGE]\n")
	path := writeFile(t, dir, "c.yaml", `
defaults:
  vocabulary: county.yaml
  verbose: true
profiles:
  hays:
    format: text
    name_order: first_last
    extend:
      company_keywords: [RANCH]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	s, err := cfg.Effective("")
	require.NoError(t, err)
	assert.Equal(t, "json", s.Format)
	assert.Equal(t, owners.NameOrderAuto, s.NameOrder)
	assert.True(t, s.Verbose)
	assert.Contains(t, s.Vocabulary.CompanyKeywords, "GRANGE")
	assert.NotContains(t, s.Vocabulary.CompanyKeywords, "RANCH")

	s, err = cfg.Effective("hays")
	require.NoError(t, err)
	assert.Equal(t, "text", s.Format)
	assert.Equal(t, owners.NameOrderFirstLast, s.NameOrder)
	assert.Contains(t, s.Vocabulary.CompanyKeywords, "GRANGE")
	assert.Contains(t, s.Vocabulary.CompanyKeywords, "RANCH")
	assert.Contains(t, s.Vocabulary.CompanyKeywords, "LLC")

	s, err = cfg.Effective("assessor_roll")
	require.NoError(t, err)
	assert.Equal(t, owners.NameOrderLastFirst, s.NameOrder)

	_, err = cfg.Effective("nope")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestEffective_ProfileVocabularyApplies(t *testing.T) {
	cfg := Default()
	cfg.Profiles["ranches"] = Profile{Extend: &owners.Vocabulary{CompanyKeywords: []string{"RANCH"}}}

	s, err := cfg.Effective("ranches")
	require.NoError(t, err)

	r := owners.NewResolver(owners.WithVocabulary(s.Vocabulary))
	res := r.Resolve("CIRCLE K RANCH", "")
	require.Len(t, res.Owners, 1)
	assert.Equal(t, "company", res.Owners[0].Kind())
}
