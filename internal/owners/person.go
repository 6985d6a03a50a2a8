// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameOrder selects how comma-less names are read.
type NameOrder string

const (
	// NameOrderAuto decides per name from case and the given-name table.
	NameOrderAuto NameOrder = "auto"
	// NameOrderLastFirst reads "SMITH JOHN" style (assessor rolls).
	NameOrderLastFirst NameOrder = "last_first"
	// NameOrderFirstLast reads "JOHN SMITH" style (deed indexes).
	NameOrderFirstLast NameOrder = "first_last"
)

// ParseNameOrder validates a configured name order. The empty string means
// NameOrderAuto.
func ParseNameOrder(s string) (NameOrder, error) {
	switch NameOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", NameOrderAuto:
		return NameOrderAuto, nil
	case NameOrderLastFirst:
		return NameOrderLastFirst, nil
	case NameOrderFirstLast:
		return NameOrderFirstLast, nil
	}
	return "", fmt.Errorf("unknown name order %q (valid: auto, last_first, first_last)", s)
}

var namePattern = regexp.MustCompile(`^[A-Z][a-z]*([ \-',.][A-Za-z][a-z]*)*$`)

// NameParser turns a person candidate into structured name fields.
type NameParser struct {
	vocab *Vocabulary
	given GivenNames
	order NameOrder
}

// NewNameParser creates a parser. A nil given-name set disables the
// table-based order heuristic.
func NewNameParser(vocab *Vocabulary, given GivenNames, order NameOrder) *NameParser {
	if order == "" {
		order = NameOrderAuto
	}
	return &NameParser{vocab: vocab, given: given, order: order}
}

type nameParts struct {
	prefix, first, middle, last, suffix string
}

// Parse reads text, which must already be normalized and stripped of
// designations and fractions. inherited is the surname carried from an
// earlier "LAST, FIRST" segment of the same cell and may be empty.
// On failure it returns a zero Person and the reason.
func (p *NameParser) Parse(text, inherited string) (Person, ReasonCode) {
	text = collapseWhitespace(p.foldSuffixCommas(text))
	if text == "" {
		return Person{}, ReasonUnparseableOrEmpty
	}

	var parts nameParts
	var reason ReasonCode
	switch strings.Count(text, ",") {
	case 0:
		parts, reason = p.parseSpaced(text, inherited)
	case 1:
		idx := strings.Index(text, ",")
		parts, reason = p.parseComma(text[:idx], text[idx+1:], inherited)
	default:
		return Person{}, ReasonAmbiguousJointOwner
	}
	if reason != "" {
		return Person{}, reason
	}
	return p.finish(parts)
}

// AwaitsSurname reports whether text holds only given names waiting for a
// surname from elsewhere in the cell: one bare token ("JANE") or given names
// closed by an initial ("JANE M").
func (p *NameParser) AwaitsSurname(text string) bool {
	text = collapseWhitespace(p.foldSuffixCommas(text))
	if strings.Contains(text, ",") {
		return false
	}
	tokens := p.trimAffixes(nameTokens(text), nil)
	return len(tokens) == 1 || p.givenWithInitial(tokens)
}

// ParseSurnameFirst reads a segment that waited for a surname in vain as
// "LAST FIRST MIDDLE", the assessor-roll order.
func (p *NameParser) ParseSurnameFirst(text string) (Person, ReasonCode) {
	text = collapseWhitespace(p.foldSuffixCommas(text))
	if strings.Contains(text, ",") {
		return Person{}, ReasonAmbiguousJointOwner
	}
	var parts nameParts
	tokens := p.trimAffixes(nameTokens(text), &parts)
	switch {
	case len(tokens) == 0:
		return Person{}, ReasonUnparseableOrEmpty
	case len(tokens) == 1:
		return Person{}, ReasonMissingLastName
	case len(tokens) > p.vocab.MaxPersonTokens:
		return Person{}, ReasonAmbiguousJointOwner
	}
	parts.last = tokens[0]
	parts.first = tokens[1]
	parts.middle = strings.Join(tokens[2:], " ")
	return p.finish(parts)
}

// foldSuffixCommas removes the comma in "SMITH JOHN, JR" so a suffix is not
// counted as a second comma-separated part.
func (p *NameParser) foldSuffixCommas(text string) string {
	re := p.vocab.compiled.suffixComma
	if re == nil {
		return text
	}
	return re.ReplaceAllString(text, " ${1}${2}")
}

func (p *NameParser) parseComma(left, right, inherited string) (nameParts, ReasonCode) {
	var parts nameParts
	given := p.trimAffixes(nameTokens(right), &parts)
	surname := p.trimAffixes(nameTokens(left), &parts)

	if len(surname)+len(given) > p.vocab.MaxPersonTokens {
		return parts, ReasonAmbiguousJointOwner
	}
	if len(surname) > 0 {
		parts.last = strings.Join(surname, " ")
	} else {
		parts.last = inherited
	}
	if len(given) > 0 {
		parts.first = given[0]
		parts.middle = strings.Join(given[1:], " ")
	}
	return parts, ""
}

func (p *NameParser) parseSpaced(text, inherited string) (nameParts, ReasonCode) {
	var parts nameParts
	tokens := p.trimAffixes(nameTokens(text), &parts)
	switch {
	case len(tokens) == 0:
		return parts, ReasonUnparseableOrEmpty
	case len(tokens) > p.vocab.MaxPersonTokens:
		return parts, ReasonAmbiguousJointOwner
	case len(tokens) == 1:
		parts.first = tokens[0]
		parts.last = inherited
		return parts, ""
	}

	// "SMITH, JOHN & JANE M" continues with given names only.
	if inherited != "" && p.allGiven(tokens) {
		parts.first = tokens[0]
		parts.middle = strings.Join(tokens[1:], " ")
		parts.last = inherited
		return parts, ""
	}

	// "SMITH JOHN & JANE M": an initial never closes a surname, so the
	// segment waits for one from its neighbours.
	if inherited == "" && p.givenWithInitial(tokens) {
		return parts, ReasonMissingLastName
	}

	// A leading particle opens a surname ("St. John Paul") in any case.
	if p.lastFirst(tokens, text) || (len(tokens) >= 3 && p.vocab.isParticle(tokens[0])) {
		// The surname absorbs leading particles ("VAN DYKE JOHN") while at
		// least one token is left for the given name.
		end := 1
		for end < len(tokens)-1 && p.vocab.isParticle(tokens[end-1]) {
			end++
		}
		parts.last = strings.Join(tokens[:end], " ")
		parts.first = tokens[end]
		parts.middle = strings.Join(tokens[end+1:], " ")
		return parts, ""
	}

	start := len(tokens) - 1
	for start > 1 && p.vocab.isParticle(tokens[start-1]) {
		start--
	}
	parts.first = tokens[0]
	parts.middle = strings.Join(tokens[1:start], " ")
	parts.last = strings.Join(tokens[start:], " ")
	return parts, ""
}

// trimAffixes pops honorific prefixes from the head and generational or
// professional suffixes from the tail. The first prefix and the first
// suffix found are recorded in parts when parts is non-nil and the field is
// still empty.
func (p *NameParser) trimAffixes(tokens []string, parts *nameParts) []string {
	for len(tokens) > 1 {
		canonical, ok := p.vocab.prefix(tokens[0])
		if !ok {
			break
		}
		if parts != nil && parts.prefix == "" {
			parts.prefix = canonical
		}
		tokens = tokens[1:]
	}
	var suffix string
	for len(tokens) > 1 {
		canonical, ok := p.vocab.suffix(tokens[len(tokens)-1])
		if !ok {
			break
		}
		suffix = canonical
		tokens = tokens[:len(tokens)-1]
	}
	if parts != nil && parts.suffix == "" {
		parts.suffix = suffix
	}
	return tokens
}

// lastFirst decides the reading order of a comma-less name.
func (p *NameParser) lastFirst(tokens []string, text string) bool {
	switch p.order {
	case NameOrderLastFirst:
		return true
	case NameOrderFirstLast:
		return false
	}
	if !allUpper(text) {
		return false
	}
	if len(tokens) >= 3 && p.vocab.isParticle(tokens[0]) {
		return true
	}
	first, second := p.given.Has(tokens[0]), p.given.Has(tokens[1])
	switch {
	case second && !first:
		return true
	case first && !second:
		return false
	case first && second:
		// "MARY ANN SMITH" ends in a surname; "SMITH MARY ANN" never
		// reaches here.
		return p.given.Has(tokens[len(tokens)-1])
	}
	return true
}

// givenWithInitial reports whether tokens are given names followed by a
// trailing initial.
func (p *NameParser) givenWithInitial(tokens []string) bool {
	if len(tokens) < 2 || !isInitial(tokens[len(tokens)-1]) {
		return false
	}
	return p.allGiven(tokens[:len(tokens)-1])
}

func (p *NameParser) allGiven(tokens []string) bool {
	for _, tok := range tokens {
		if !isInitial(tok) && !p.given.Has(tok) {
			return false
		}
	}
	return len(tokens) > 0
}

// finish cleans each field and enforces that a person has both a first and a
// last name.
func (p *NameParser) finish(parts nameParts) (Person, ReasonCode) {
	caser := cases.Title(language.English)
	person := Person{
		PrefixName: parts.prefix,
		SuffixName: parts.suffix,
		FirstName:  cleanNameField(parts.first, caser),
		MiddleName: cleanNameField(parts.middle, caser),
		LastName:   cleanNameField(parts.last, caser),
	}
	switch {
	case person.LastName == "" && person.FirstName == "":
		return Person{}, ReasonUnparseableOrEmpty
	case person.FirstName == "":
		return Person{}, ReasonMissingFirstName
	case person.LastName == "":
		return Person{}, ReasonMissingLastName
	}
	return person, ""
}

// cleanNameField keeps letters and name punctuation, title-cases the result
// and returns "" when it does not look like a name.
func cleanNameField(s string, caser cases.Caser) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || strings.ContainsRune(" -',.", r) {
			b.WriteRune(r)
		}
	}
	v := strings.ReplaceAll(b.String(), ".", " ")
	v = strings.Trim(collapseWhitespace(v), edgePunctuation)
	if v == "" {
		return ""
	}
	v = caser.String(v)
	if !namePattern.MatchString(v) {
		return ""
	}
	return v
}

func allUpper(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}

func isInitial(token string) bool {
	t := strings.TrimSuffix(token, ".")
	return len(t) == 1 && unicode.IsLetter(rune(t[0]))
}
