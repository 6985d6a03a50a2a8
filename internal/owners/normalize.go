// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxNormalizePasses bounds the fixpoint loop in Normalize. Real input
// settles in two passes.
const maxNormalizePasses = 8

var (
	bracketedRe    = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)
	strayBracketRe = regexp.MustCompile(`[()\[\]]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	// bareInterestRe finds INT/INTEREST words; group 1 is set when the word
	// belongs to a fraction such as "1/2 INT" and must be left in place.
	bareInterestRe = regexp.MustCompile(`(?i)(\d+\s*/\s*\d+\s+(?:(?:UND|UNDIVIDED)\s+)?)?\b(?:INT|INTEREST)\b`)
)

// edgePunctuation is trimmed from both ends of a normalized string.
const edgePunctuation = " -',."

// Normalizer cleans one raw owner string: whitespace, bracketed asides and
// noise phrases.
type Normalizer struct {
	vocab *Vocabulary
}

// NewNormalizer creates a normalizer backed by vocab.
func NewNormalizer(vocab *Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab}
}

// Normalize returns the cleaned form of s. Normalize(Normalize(s)) equals
// Normalize(s).
func (n *Normalizer) Normalize(s string) string {
	for i := 0; i < maxNormalizePasses; i++ {
		next := n.normalizeOnce(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}

// HasEtAl reports whether s mentions an "ET AL" style phrase.
func (n *Normalizer) HasEtAl(s string) bool {
	re := n.vocab.compiled.etAl
	return re != nil && re.MatchString(collapseWhitespace(foldText(s)))
}

func (n *Normalizer) normalizeOnce(s string) string {
	s = foldText(s)
	s = removeBracketed(s)
	s = collapseWhitespace(s)
	s = n.removeNoise(s)
	s = removeBareInterest(s)
	s = collapseWhitespace(s)
	return strings.Trim(s, edgePunctuation)
}

func (n *Normalizer) removeNoise(s string) string {
	re := n.vocab.compiled.noise
	if re == nil {
		return s
	}
	for {
		next := re.ReplaceAllString(s, "${1} ${3}")
		if next == s {
			return s
		}
		s = next
	}
}

// foldText applies compatibility folding (non-breaking spaces become plain
// spaces), drops diacritics and invisible format characters.
func foldText(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Cf, r):
			continue
		case unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(b.String())
}

func removeBracketed(s string) string {
	for {
		next := bracketedRe.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	return strayBracketRe.ReplaceAllString(s, " ")
}

func removeBareInterest(s string) string {
	matches := bareInterestRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[2] >= 0 {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
