// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed data/vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary holds the lookup tables that drive normalization, designation
// stripping, classification and name parsing. Use DefaultVocabulary or
// ParseVocabulary to obtain a compiled, read-only instance.
type Vocabulary struct {
	NoisePhrases          []string          `yaml:"noise_phrases" toml:"noise_phrases"`
	EtAlPhrases           []string          `yaml:"et_al_phrases" toml:"et_al_phrases"`
	Designations          []string          `yaml:"designations" toml:"designations"`
	EntityDesignations    []string          `yaml:"entity_designations" toml:"entity_designations"`
	CompanyKeywords       []string          `yaml:"company_keywords" toml:"company_keywords"`
	CompanyPhrases        []string          `yaml:"company_phrases" toml:"company_phrases"`
	UnclassifiablePhrases []string          `yaml:"unclassifiable_phrases" toml:"unclassifiable_phrases"`
	Prefixes              map[string]string `yaml:"prefixes" toml:"prefixes"`
	Suffixes              map[string]string `yaml:"suffixes" toml:"suffixes"`
	SurnameParticles      []string          `yaml:"surname_particles" toml:"surname_particles"`
	MaxPersonTokens       int               `yaml:"max_person_tokens" toml:"max_person_tokens"`

	compiled *compiledVocabulary
}

// compiledVocabulary holds matchers derived from the lists. It is built once
// per Vocabulary and never mutated afterwards.
type compiledVocabulary struct {
	noise           *regexp.Regexp
	etAl            *regexp.Regexp
	designation     *regexp.Regexp
	companyPhrase   *regexp.Regexp
	entity          map[string]bool
	companyKeywords map[string]bool
	unclassifiable  map[string]bool
	prefixes        map[string]string
	suffixes        map[string]string
	particles       map[string]bool
	suffixComma     *regexp.Regexp
}

// ErrEmptyVocabulary is returned for an extension file without any
// recognised table, usually a misspelled key.
var ErrEmptyVocabulary = errors.New("vocabulary file has no entries")

var (
	defaultVocabulary *Vocabulary
	defaultOnce       sync.Once
	defaultErr        error
)

// DefaultVocabulary returns the embedded vocabulary. It is parsed once and
// shared; callers must not modify it.
func DefaultVocabulary() (*Vocabulary, error) {
	defaultOnce.Do(func() {
		defaultVocabulary, defaultErr = ParseVocabulary(defaultVocabularyYAML)
	})
	return defaultVocabulary, defaultErr
}

// MustDefaultVocabulary is DefaultVocabulary for callers that cannot recover
// from a broken embedded table.
func MustDefaultVocabulary() *Vocabulary {
	v, err := DefaultVocabulary()
	if err != nil {
		panic(fmt.Sprintf("owners: embedded vocabulary: %v", err))
	}
	return v
}

// ParseVocabulary decodes a YAML vocabulary document and compiles it.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("error parsing vocabulary: %w", err)
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadVocabularyFile reads a vocabulary extension file (YAML, or TOML by
// extension) and merges it over the default vocabulary.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading vocabulary file: %w", err)
	}
	ext := &Vocabulary{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, ext)
	} else {
		err = yaml.Unmarshal(data, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing vocabulary file %s: %w", path, err)
	}
	if ext.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyVocabulary, path)
	}
	base, err := DefaultVocabulary()
	if err != nil {
		return nil, err
	}
	return base.Extend(ext)
}

// Extend returns a new compiled vocabulary holding the union of v and ext.
// Map entries in ext override those in v; a positive MaxPersonTokens in ext
// replaces the base value. Neither input is modified.
func (v *Vocabulary) Extend(ext *Vocabulary) (*Vocabulary, error) {
	if ext == nil {
		return v, nil
	}
	merged := &Vocabulary{
		NoisePhrases:          union(v.NoisePhrases, ext.NoisePhrases),
		EtAlPhrases:           union(v.EtAlPhrases, ext.EtAlPhrases),
		Designations:          union(v.Designations, ext.Designations),
		EntityDesignations:    union(v.EntityDesignations, ext.EntityDesignations),
		CompanyKeywords:       union(v.CompanyKeywords, ext.CompanyKeywords),
		CompanyPhrases:        union(v.CompanyPhrases, ext.CompanyPhrases),
		UnclassifiablePhrases: union(v.UnclassifiablePhrases, ext.UnclassifiablePhrases),
		Prefixes:              overlay(v.Prefixes, ext.Prefixes),
		Suffixes:              overlay(v.Suffixes, ext.Suffixes),
		SurnameParticles:      union(v.SurnameParticles, ext.SurnameParticles),
		MaxPersonTokens:       v.MaxPersonTokens,
	}
	if ext.MaxPersonTokens > 0 {
		merged.MaxPersonTokens = ext.MaxPersonTokens
	}
	if err := merged.compile(); err != nil {
		return nil, err
	}
	return merged, nil
}

// IsEmpty reports whether the vocabulary carries no entries at all.
func (v *Vocabulary) IsEmpty() bool {
	return v == nil || (len(v.NoisePhrases) == 0 && len(v.EtAlPhrases) == 0 &&
		len(v.Designations) == 0 && len(v.EntityDesignations) == 0 &&
		len(v.CompanyKeywords) == 0 && len(v.CompanyPhrases) == 0 &&
		len(v.UnclassifiablePhrases) == 0 && len(v.Prefixes) == 0 &&
		len(v.Suffixes) == 0 && len(v.SurnameParticles) == 0 && v.MaxPersonTokens == 0)
}

func (v *Vocabulary) compile() error {
	if v.MaxPersonTokens <= 0 {
		v.MaxPersonTokens = 5
	}

	c := &compiledVocabulary{
		entity:          tokenSet(v.EntityDesignations),
		companyKeywords: make(map[string]bool, len(v.CompanyKeywords)),
		unclassifiable:  tokenSet(v.UnclassifiablePhrases),
		prefixes:        make(map[string]string, len(v.Prefixes)),
		suffixes:        make(map[string]string, len(v.Suffixes)),
		particles:       tokenSet(v.SurnameParticles),
	}
	for _, kw := range v.CompanyKeywords {
		c.companyKeywords[keywordToken(kw)] = true
	}
	for k, canonical := range v.Prefixes {
		c.prefixes[keywordToken(k)] = canonical
	}
	for k, canonical := range v.Suffixes {
		c.suffixes[keywordToken(k)] = canonical
	}

	var err error
	if c.noise, err = phraseMatcher(v.NoisePhrases); err != nil {
		return fmt.Errorf("noise_phrases: %w", err)
	}
	if c.etAl, err = phraseMatcher(v.EtAlPhrases); err != nil {
		return fmt.Errorf("et_al_phrases: %w", err)
	}
	if c.designation, err = phraseMatcher(v.Designations); err != nil {
		return fmt.Errorf("designations: %w", err)
	}
	if c.companyPhrase, err = phraseMatcher(v.CompanyPhrases); err != nil {
		return fmt.Errorf("company_phrases: %w", err)
	}

	suffixKeys := make([]string, 0, len(c.suffixes))
	for k := range c.suffixes {
		suffixKeys = append(suffixKeys, regexp.QuoteMeta(k))
	}
	sort.Strings(suffixKeys)
	if len(suffixKeys) > 0 {
		c.suffixComma = regexp.MustCompile(`(?i),\s*((?:` + strings.Join(suffixKeys, "|") + `)\.?)(\s|,|$)`)
	}

	v.compiled = c
	return nil
}

// phraseMatcher builds one case-insensitive alternation that matches any of
// the phrases as whole words, longest phrase first.
func phraseMatcher(phrases []string) (*regexp.Regexp, error) {
	if len(phrases) == 0 {
		return nil, nil
	}
	sorted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	alts := make([]string, len(sorted))
	for i, p := range sorted {
		words := strings.Fields(p)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, `\s+`)
	}
	// Phrases may start or end with punctuation ("H&W", "L.L.C."), so word
	// edges are expressed as non-word neighbours instead of \b.
	return regexp.Compile(`(?i)(^|[^A-Za-z0-9&/])(` + strings.Join(alts, "|") + `)($|[^A-Za-z0-9&/])`)
}

// keywordToken upper-cases a table entry and drops a trailing period so that
// "INC." and "INC" compare equal.
func keywordToken(s string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), ".")
}

func tokenSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[strings.Join(strings.Fields(keywordToken(s)), " ")] = true
	}
	return set
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			k := strings.ToUpper(strings.TrimSpace(s))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}

func overlay(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// isCompanyKeyword reports whether a single token is a company indicator.
func (v *Vocabulary) isCompanyKeyword(token string) bool {
	return v.compiled.companyKeywords[keywordToken(token)]
}

// prefix returns the canonical prefix for token, if it is one.
func (v *Vocabulary) prefix(token string) (string, bool) {
	canonical, ok := v.compiled.prefixes[keywordToken(token)]
	return canonical, ok
}

// suffix returns the canonical suffix for token, if it is one.
func (v *Vocabulary) suffix(token string) (string, bool) {
	canonical, ok := v.compiled.suffixes[keywordToken(token)]
	return canonical, ok
}

func (v *Vocabulary) isParticle(token string) bool {
	return v.compiled.particles[keywordToken(token)]
}

func (v *Vocabulary) isEntityDesignation(designation string) bool {
	return v.compiled.entity[strings.Join(strings.Fields(keywordToken(designation)), " ")]
}

func (v *Vocabulary) isUnclassifiable(text string) bool {
	return v.compiled.unclassifiable[strings.Join(strings.Fields(keywordToken(text)), " ")]
}
