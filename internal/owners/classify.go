// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntityKind is the classifier's verdict for one candidate.
type EntityKind int

const (
	KindUnclassified EntityKind = iota
	KindPerson
	KindCompany
)

func (k EntityKind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindCompany:
		return "company"
	default:
		return "unclassified"
	}
}

// Classifier decides whether a candidate names a person or a company.
type Classifier struct {
	vocab    *Vocabulary
	stripper *DesignationStripper
}

// NewClassifier creates a classifier backed by vocab.
func NewClassifier(vocab *Vocabulary) *Classifier {
	return &Classifier{vocab: vocab, stripper: NewDesignationStripper(vocab)}
}

// Classify inspects the candidate text and the designations stripped from it.
// Company phrases ("TRUSTEE FOR", "ESTATE OF") are matched on the unstripped
// text; keywords are matched on the stripped name so that a designation such
// as "CO TRUSTEE" is not mistaken for a company suffix. A removed entity
// designation ("TRUST") makes the candidate a company even when the rest
// reads like a person.
func (c *Classifier) Classify(candidate string, designations DesignationResult) EntityKind {
	text := collapseWhitespace(candidate)
	if text == "" || !hasLetter(text) || c.vocab.isUnclassifiable(text) {
		return KindUnclassified
	}
	if c.matchesCompanyPhrase(text) ||
		c.hasCompanyKeyword(designations.CleanedName) ||
		designations.HasEntityDesignation(c.vocab) {
		return KindCompany
	}
	if digitHeavy(text) {
		return KindUnclassified
	}
	return KindPerson
}

// IsCompany classifies text on its own, stripping designations first.
func (c *Classifier) IsCompany(text string) bool {
	return c.Classify(text, c.stripper.Strip(text)) == KindCompany
}

func (c *Classifier) matchesCompanyPhrase(text string) bool {
	re := c.vocab.compiled.companyPhrase
	return re != nil && re.MatchString(text)
}

// hasCompanyKeyword also treats a token joined by an inner ampersand
// ("AT&T", "B&B") as a company indicator.
func (c *Classifier) hasCompanyKeyword(text string) bool {
	for _, tok := range nameTokens(text) {
		if c.vocab.isCompanyKeyword(tok) || innerAmpRe.MatchString(tok) {
			return true
		}
	}
	return false
}

// CompanyName cleans a company candidate for output: it keeps letters,
// digits and common business punctuation, and title-cases the result.
func CompanyName(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" &-',./#", r) {
			b.WriteRune(r)
		}
	}
	name := strings.Trim(collapseWhitespace(b.String()), edgePunctuation)
	if name == "" || !hasLetter(name) {
		return ""
	}
	return cases.Title(language.English).String(name)
}

// nameTokens splits on whitespace and commas.
func nameTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

func hasLetter(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// digitHeavy reports whether more than half of the tokens contain digits,
// which marks parcel or document numbers rather than names.
func digitHeavy(text string) bool {
	tokens := nameTokens(text)
	if len(tokens) == 0 {
		return false
	}
	withDigits := 0
	for _, tok := range tokens {
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			withDigits++
		}
	}
	return withDigits*2 > len(tokens)
}
