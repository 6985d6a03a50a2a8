// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary(t *testing.T) {
	v, err := DefaultVocabulary()
	require.NoError(t, err)
	assert.False(t, v.IsEmpty())
	assert.Equal(t, 5, v.MaxPersonTokens)

	assert.True(t, v.isCompanyKeyword("llc"))
	assert.True(t, v.isCompanyKeyword("INC."))
	assert.False(t, v.isCompanyKeyword("SMITH"))

	canonical, ok := v.suffix("jr.")
	assert.True(t, ok)
	assert.Equal(t, "Jr.", canonical)

	canonical, ok = v.prefix("DR")
	assert.True(t, ok)
	assert.Equal(t, "Dr.", canonical)

	assert.True(t, v.isParticle("van"))
	assert.True(t, v.isEntityDesignation("revocable  trust"))
	assert.True(t, v.isUnclassifiable("owner of record"))
}

func TestVocabulary_Extend(t *testing.T) {
	base := MustDefaultVocabulary()
	ext := &Vocabulary{
		CompanyKeywords: []string{"RANCH"},
		Suffixes:        map[string]string{"JR": "Junior"},
		MaxPersonTokens: 7,
	}

	merged, err := base.Extend(ext)
	require.NoError(t, err)
	assert.True(t, merged.isCompanyKeyword("RANCH"))
	assert.True(t, merged.isCompanyKeyword("LLC"))
	assert.Equal(t, 7, merged.MaxPersonTokens)

	canonical, _ := merged.suffix("JR")
	assert.Equal(t, "Junior", canonical)

	// The base is untouched.
	assert.False(t, base.isCompanyKeyword("RANCH"))
	canonical, _ = base.suffix("JR")
	assert.Equal(t, "Jr.", canonical)
}

func TestLoadVocabularyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "county.yaml")
	require.NoError(t, os.WriteFile(path, []byte("company_keywords:\n  - RANCH\ndesignations:\n  - LIFE TENANT\n"), 0o600))

	v, err := LoadVocabularyFile(path)
	require.NoError(t, err)
	assert.True(t, v.isCompanyKeyword("RANCH"))

	got := NewDesignationStripper(v).Strip("DOE JANE LIFE TENANT")
	assert.Equal(t, "DOE JANE", got.CleanedName)

	_, err = LoadVocabularyFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("company_keyword:\n  - RANCH\n"), 0o600))
	_, err = LoadVocabularyFile(empty)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("company_keywords: [unclosed"), 0o600))
	_, err = LoadVocabularyFile(bad)
	assert.Error(t, err)
}

func TestLoadVocabularyFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "county.toml")
	require.NoError(t, os.WriteFile(path, []byte("company_keywords = [\"RANCH\"]\nmax_person_tokens = 6\n\n[suffixes]\nESQ = \"Esq.\"\n"), 0o600))

	v, err := LoadVocabularyFile(path)
	require.NoError(t, err)
	assert.True(t, v.isCompanyKeyword("RANCH"))
	assert.True(t, v.isCompanyKeyword("LLC"))
	assert.Equal(t, 6, v.MaxPersonTokens)
	got, ok := v.suffix("ESQ")
	assert.True(t, ok)
	assert.Equal(t, "Esq.", got)
}

func TestLoadGivenNames(t *testing.T) {
	names, err := LoadGivenNames()
	require.NoError(t, err)
	assert.True(t, names.Has("john"))
	assert.True(t, names.Has("MARY,"))
	assert.False(t, names.Has("SMITH"))

	var empty GivenNames
	assert.False(t, empty.Has("JOHN"))
}
