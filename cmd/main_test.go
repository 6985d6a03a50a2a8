// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"parcel-owners/internal/config"
	"parcel-owners/internal/resilience"
	"parcel-owners/internal/sink"
	"parcel-owners/internal/timeline"
	"parcel-owners/internal/version"
)

// isolate runs the command from an empty directory so no config file is found.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PARCEL_OWNERS_CONFIG_DIR", filepath.Join(dir, "no-config"))
	t.Setenv("PARCEL_OWNERS_DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type output struct {
	ParcelID      string                       `json:"parcel_id"`
	County        string                       `json:"county"`
	OwnersByDate  map[string][]map[string]interface{} `json:"owners_by_date"`
	InvalidOwners []map[string]string          `json:"invalid_owners"`
}

func TestResolveCommand_JSON(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "", "resolve", "SMITH JOHN & JANE", "ACME HOLDINGS LLC", "ET AL")
	require.NoError(t, err)

	var got output
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"current"}, keys(got.OwnersByDate))
	require.Len(t, got.OwnersByDate["current"], 3)
	current := got.OwnersByDate["current"]
	assert.Equal(t, "John", current[0]["first_name"])
	assert.Equal(t, "Smith", current[0]["last_name"])
	assert.Equal(t, "Jane", current[1]["first_name"])
	assert.Equal(t, "company", current[2]["type"])
	assert.Equal(t, "Acme Holdings Llc", current[2]["name"])
	assert.Equal(t, []map[string]string{{"raw": "ET AL", "reason": "contains_et_al"}}, got.InvalidOwners)
}

func TestResolveCommand_StdinAndMailing(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "DOE JOHN\n\nROE MARY\n", "resolve", "--format", "csv", "--mailing", "PO BOX 1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "John Doe")
	assert.Contains(t, lines[1], "PO BOX 1")
	assert.Contains(t, lines[2], "Mary Roe")
}

func TestResolveCommand_Profile(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "", "resolve", "--profile", "deed_index", "--format", "text", "SMITH JOHN")
	require.NoError(t, err)
	assert.Contains(t, out, "John, Smith")

	_, _, err = run(t, "", "resolve", "--profile", "nope", "SMITH JOHN")
	assert.ErrorIs(t, err, config.ErrUnknownProfile)

	_, _, err = run(t, "", "resolve", "--format", "xml", "SMITH JOHN")
	assert.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestResolveCommand_DebugLogsToStderr(t *testing.T) {
	isolate(t)

	out, stderr, err := run(t, "", "resolve", "--debug", "ET AL")
	require.NoError(t, err)
	assert.Contains(t, out, "contains_et_al")
	assert.Contains(t, stderr, "cli: resolve")
	assert.Contains(t, stderr, `invalid "ET AL": contains_et_al`)
	assert.Contains(t, stderr, `"operation":"build"`)
	assert.Contains(t, stderr, "bucket current: 0 owners")
}

func TestConfigFileWarning(t *testing.T) {
	dir := isolate(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("defaults:\n  format: xml\n"), 0o600))

	out, stderr, err := run(t, "", "--config", bad, "resolve", "DOE JOHN")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: Error loading config file")
	assert.Contains(t, out, `"last_name": "Doe"`)
}

const parcelA = `{
  "parcel_id": "A-1",
  "county": "Travis",
  "current_owners": ["POE EDGAR & POE LINDA"],
  "mailing_address": "1 RAVEN LN",
  "sales": [
    {"date": "2001-05-01", "grantor": "ACME LLC", "grantee": "POE EDGAR"},
    {"date": "1999-02-03", "grantor": "DOE JOHN", "grantee": "ACME LLC"}
  ]
}`

const parcelB = `parcel_id: "B/2"
current_owners:
  - UNKNOWN
`

func writeParcels(t *testing.T, dir string) string {
	t.Helper()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.json"), []byte(parcelA), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.yaml"), []byte(parcelB), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o600))
	return in
}

func TestTimelineCommand_Stdout(t *testing.T) {
	dir := isolate(t)
	in := writeParcels(t, dir)

	out, _, err := run(t, "", "timeline", "--workers", "2", in)
	require.NoError(t, err)

	var got []output
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A-1", got[0].ParcelID)
	assert.Equal(t, "Travis", got[0].County)
	assert.Equal(t, []string{"unknown_date_1", "1999-02-03", "2001-05-01", "current"}, keysInOrder(t, out, got[0].OwnersByDate))
	assert.Equal(t, "B/2", got[1].ParcelID)
	assert.Equal(t, "unclassifiable_owner", got[1].InvalidOwners[0]["reason"])
}

func TestTimelineCommand_OutDirAndSink(t *testing.T) {
	dir := isolate(t)
	in := writeParcels(t, dir)
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "owners.db")
	t.Setenv("PARCEL_OWNERS_SINK_DSN", dbPath)

	out, _, err := run(t, "", "timeline", "--format", "yaml", "--out-dir", outDir, "--sink", in)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(filepath.Join(outDir, "A-1.yaml"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "A-1", doc["parcel_id"])
	assert.FileExists(t, filepath.Join(outDir, "B_2.yaml"))

	store, err := sink.Open(t.Context(), sink.Config{DSN: dbPath})
	require.NoError(t, err)
	defer store.Close()
	tl, err := store.LoadOwners(t.Context(), "A-1")
	require.NoError(t, err)
	assert.Len(t, tl.Owners(timeline.CurrentKey), 2)
	assert.Len(t, tl.Owners("1999-02-03"), 1)
}

func TestTimelineCommand_Failures(t *testing.T) {
	dir := isolate(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"current_owners": []}`), 0o600))
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte("parcel_id = \"T-1\"\ncurrent_owners = [\"DOE JOHN\"]\n"), 0o600))

	out, stderr, err := run(t, "", "timeline", bad, good)
	assert.EqualError(t, err, "1 of 2 parcel documents failed")
	assert.Contains(t, stderr, "parcel document has no parcel_id")
	assert.Contains(t, out, `"parcel_id": "T-1"`)

	_, _, err = run(t, "", "timeline", filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "error accessing")

	_, _, err = run(t, "", "timeline", t.TempDir())
	assert.EqualError(t, err, "no parcel documents found")
}

func TestVocabCommand(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "", "vocab")
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &v))
	assert.Contains(t, v, "company_keywords")
	assert.Equal(t, 5, v["max_person_tokens"])

	out, _, err = run(t, "", "vocab", "--list-profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "assessor_roll")
	assert.Contains(t, out, "deed_index")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "parcel-owners ")

	out, _, err = run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", out)

	out, _, err = run(t, "", "version", "--json")
	require.NoError(t, err)
	var b version.Build
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, version.Current().Platform, b.Platform)
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "R-100.json", reportFileName("R-100", ".json"))
	assert.Equal(t, "etc_passwd.json", reportFileName("../etc/passwd", ".json"))
	assert.Equal(t, "parcel.txt", reportFileName("///", ".txt"))
}

func TestReportFileNames_Unique(t *testing.T) {
	names := reportFileNames{}
	assert.Equal(t, "A_1.json", names.next("A/1", ".json"))
	assert.Equal(t, "A_1-2.json", names.next("A_1", ".json"))
	assert.Equal(t, "A_1-3.json", names.next("A 1", ".json"))
	assert.Equal(t, "A_1.yaml", names.next("A/1", ".yaml"))
	assert.Equal(t, "B.json", names.next("B", ".json"))
}

func TestTimelineCommand_OutDirKeepsCollidingParcels(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.json"), []byte(`{"parcel_id": "A/1", "current_owners": ["DOE JOHN"]}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.json"), []byte(`{"parcel_id": "A_1", "current_owners": ["ROE MARY"]}`), 0o600))
	outDir := filepath.Join(dir, "out")

	_, _, err := run(t, "", "timeline", "--out-dir", outDir, in)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(outDir, "A_1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(first), `"parcel_id": "A/1"`)
	second, err := os.ReadFile(filepath.Join(outDir, "A_1-2.json"))
	require.NoError(t, err)
	assert.Contains(t, string(second), `"parcel_id": "A_1"`)
}

func TestSinkRetryConfig(t *testing.T) {
	assert.Nil(t, sinkRetryConfig("sqlite", 0))

	sqlite := sinkRetryConfig("sqlite", 2)
	require.NotNil(t, sqlite)
	assert.Equal(t, 2, sqlite.MaxRetries)
	assert.Equal(t, resilience.DefaultRetryConfig().InitialInterval, sqlite.InitialInterval)

	for _, name := range []string{"oracle", "ORACLE", " Oracle "} {
		oracle := sinkRetryConfig(name, 7)
		require.NotNil(t, oracle, name)
		assert.Equal(t, 7, oracle.MaxRetries)
		assert.Equal(t, resilience.RemoteRetryConfig().InitialInterval, oracle.InitialInterval, name)
	}
}

func keys(m map[string][]map[string]interface{}) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

// keysInOrder returns the keys of m in the order they appear in raw.
func keysInOrder(t *testing.T, raw string, m map[string][]map[string]interface{}) []string {
	t.Helper()
	type pos struct {
		key string
		at  int
	}
	var found []pos
	for k := range m {
		at := strings.Index(raw, `"`+k+`"`)
		require.GreaterOrEqual(t, at, 0, k)
		found = append(found, pos{k, at})
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].at < found[j-1].at; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	out := make([]string, len(found))
	for i, p := range found {
		out[i] = p.key
	}
	return out
}
