// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"regexp"
	"strings"
)

// Placeholders for separator characters that must survive splitting.
const (
	maskedAmp   = "\x00"
	maskedSlash = "\x01"
	maskedAnd   = "\x02"
)

var (
	fractionSlashRe = regexp.MustCompile(`(\d)\s*/\s*(\d)`)
	innerAmpRe      = regexp.MustCompile(`([A-Za-z0-9])&([A-Za-z0-9])`)
	separatorRe     = regexp.MustCompile(`(?i)\s*(?:[&;+/]|\bAND\b)\s*`)
	andWordRe       = regexp.MustCompile(`(?i)\bAND\b`)
)

// Splitter breaks one normalized owner cell into owner candidates.
type Splitter struct {
	vocab      *Vocabulary
	classifier *Classifier
}

// NewSplitter creates a splitter backed by vocab.
func NewSplitter(vocab *Vocabulary) *Splitter {
	return &Splitter{vocab: vocab, classifier: NewClassifier(vocab)}
}

// Split returns the candidates of a normalized cell in input order. A cell
// that reads as a company is returned whole. Segments following a
// "LAST, FIRST" segment inherit its surname as a candidate.
func (s *Splitter) Split(normalized string) []Candidate {
	normalized = collapseWhitespace(normalized)
	if normalized == "" {
		return nil
	}
	if s.classifier.IsCompany(normalized) {
		return []Candidate{{Raw: normalized, HasComma: strings.Contains(normalized, ",")}}
	}

	var candidates []Candidate
	inherited := ""
	for _, part := range separatorRe.Split(s.mask(normalized), -1) {
		raw := strings.Trim(collapseWhitespace(unmask(part)), edgePunctuation)
		if raw == "" {
			continue
		}
		c := Candidate{Raw: raw, HasComma: strings.Contains(raw, ",")}
		if c.HasComma {
			if surname := strings.TrimSpace(raw[:strings.Index(raw, ",")]); surname != "" {
				inherited = surname
			}
		} else {
			c.InheritedLastName = inherited
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// mask hides separators that are part of a single token ("AT&T", "1/2") or
// of a designation phrase ("HUSBAND AND WIFE").
func (s *Splitter) mask(text string) string {
	text = fractionSlashRe.ReplaceAllString(text, "${1}"+maskedSlash+"${2}")
	for {
		next := innerAmpRe.ReplaceAllString(text, "${1}"+maskedAmp+"${2}")
		if next == text {
			break
		}
		text = next
	}

	re := s.vocab.compiled.designation
	if re == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[4], loc[5]
		b.WriteString(text[last:start])
		phrase := text[start:end]
		phrase = strings.ReplaceAll(phrase, "&", maskedAmp)
		phrase = strings.ReplaceAll(phrase, "/", maskedSlash)
		phrase = andWordRe.ReplaceAllString(phrase, maskedAnd)
		b.WriteString(phrase)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func unmask(text string) string {
	return strings.NewReplacer(maskedAmp, "&", maskedSlash, "/", maskedAnd, "AND").Replace(text)
}
