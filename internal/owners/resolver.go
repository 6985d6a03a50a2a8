// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"fmt"

	"parcel-owners/internal/observability"
)

// Resolver turns raw owner cells into structured owners. It holds only
// read-only state after construction and is safe for concurrent use.
type Resolver struct {
	vocab      *Vocabulary
	order      NameOrder
	normalizer *Normalizer
	stripper   *DesignationStripper
	splitter   *Splitter
	classifier *Classifier
	parser     *NameParser
	observer   *observability.StandardObserver
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVocabulary replaces the embedded vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(r *Resolver) {
		if v != nil {
			r.vocab = v
		}
	}
}

// WithNameOrder fixes the reading order of comma-less names.
func WithNameOrder(order NameOrder) Option {
	return func(r *Resolver) {
		r.order = order
	}
}

// WithObserver attaches an observer. A nil observer disables logging.
func WithObserver(o *observability.StandardObserver) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// NewResolver builds a resolver from the embedded vocabulary and given-name
// table unless options say otherwise.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{order: NameOrderAuto}
	for _, opt := range opts {
		opt(r)
	}
	if r.vocab == nil {
		r.vocab = MustDefaultVocabulary()
	}
	// The given-name table only steers the order heuristic; without it every
	// all-caps name reads surname first.
	given, _ := LoadGivenNames()

	r.normalizer = NewNormalizer(r.vocab)
	r.stripper = NewDesignationStripper(r.vocab)
	r.splitter = NewSplitter(r.vocab)
	r.classifier = NewClassifier(r.vocab)
	r.parser = NewNameParser(r.vocab, given, r.order)
	return r
}

// Vocabulary returns the vocabulary the resolver was built with.
func (r *Resolver) Vocabulary() *Vocabulary {
	return r.vocab
}

// Resolve resolves a single owner cell.
func (r *Resolver) Resolve(raw, mailingAddress string) Resolution {
	return r.ResolveAll([]Cell{{Text: raw, MailingAddress: mailingAddress}})
}

// ResolveAll resolves several cells that belong together, for example every
// grantee of one sale. Owners are deduplicated across cells; invalid entries
// are deduplicated by raw text and reason.
func (r *Resolver) ResolveAll(cells []Cell) Resolution {
	finish := r.observer.StartTiming("owners", "resolve", fmt.Sprintf("%d cells", len(cells)))

	debug := r.debugObserver()
	var res Resolution
	for _, cell := range cells {
		nOwners, nInvalid := len(res.Owners), len(res.Invalid)
		r.resolveCell(cell, &res)
		if debug != nil {
			debug.LogCell(cell.Text, len(res.Owners)-nOwners, len(res.Invalid)-nInvalid)
		}
	}
	res.Owners = Dedupe(res.Owners)
	res.Invalid = DedupeInvalid(res.Invalid)

	if debug != nil {
		for _, inv := range res.Invalid {
			debug.LogDetail("owners", fmt.Sprintf("invalid %q: %s", inv.Raw, inv.Reason))
		}
	}
	finish(len(res.Invalid) == 0, map[string]interface{}{
		"owners":  len(res.Owners),
		"invalid": len(res.Invalid),
	})
	return res
}

// slot holds the outcome for one candidate of a cell until the surname
// fallback has run.
type slot struct {
	candidate Candidate
	text      string
	owner     Owner
	invalid   *InvalidOwnerEntry
	interest  *Fraction
	// pending marks a bare given name that may still borrow a surname.
	pending bool
}

func (r *Resolver) resolveCell(cell Cell, res *Resolution) {
	raw := collapseWhitespace(cell.Text)
	etAl := r.normalizer.HasEtAl(raw)
	normalized := r.normalizer.Normalize(raw)

	if normalized == "" {
		reason := ReasonUnparseableOrEmpty
		if etAl {
			reason = ReasonContainsEtAl
		}
		res.Invalid = append(res.Invalid, InvalidOwnerEntry{Raw: raw, Reason: reason})
		return
	}
	if r.vocab.isUnclassifiable(normalized) {
		res.Invalid = append(res.Invalid, InvalidOwnerEntry{Raw: normalized, Reason: ReasonUnclassifiableOwner})
		return
	}

	candidates := r.splitter.Split(normalized)
	slots := make([]slot, 0, len(candidates))
	var shared *Fraction
	for _, c := range candidates {
		c.MailingAddress = cell.MailingAddress
		c.Date = cell.Date

		interest := ExtractInterest(c.Raw)
		if interest.Fraction != nil {
			shared = interest.Fraction
		}
		if interest.Cleaned == "" && interest.Fraction != nil {
			// A bare "1/2 INT" segment annotates the names that follow.
			continue
		}

		s := r.resolveCandidate(c, interest.Cleaned, shared)
		if s.owner == nil && !s.pending {
			shared = nil
		}
		if _, ok := s.owner.(Company); ok {
			shared = nil
		}
		slots = append(slots, s)
	}

	r.borrowSurnames(slots)

	for _, s := range slots {
		switch {
		case s.owner != nil:
			res.Owners = append(res.Owners, s.owner)
		case s.invalid != nil:
			res.Invalid = append(res.Invalid, *s.invalid)
		}
	}
}

func (r *Resolver) resolveCandidate(c Candidate, text string, interest *Fraction) slot {
	s := slot{candidate: c, interest: interest}
	invalid := func(reason ReasonCode) slot {
		s.invalid = &InvalidOwnerEntry{Raw: c.Raw, Reason: reason}
		return s
	}

	stripped := r.stripper.Strip(text)
	switch r.classifier.Classify(text, stripped) {
	case KindUnclassified:
		return invalid(ReasonUnclassifiableOwner)
	case KindCompany:
		name := CompanyName(text)
		if name == "" {
			return invalid(ReasonUnparseableOrEmpty)
		}
		s.owner = Company{Name: name, MailingAddress: c.MailingAddress}
		return s
	}

	s.text = stripped.CleanedName
	person, reason := r.parser.Parse(s.text, c.InheritedLastName)
	if reason != "" {
		s.pending = reason == ReasonMissingLastName && r.parser.AwaitsSurname(s.text)
		return invalid(reason)
	}
	person.OwnershipInterest = copyFraction(interest)
	person.MailingAddress = c.MailingAddress
	s.owner = person
	return s
}

// borrowSurnames completes bare given names ("JOHN & JANE SMITH",
// "SMITH JOHN & JANE M") with the surname of the nearest following person in
// the cell, or failing that the nearest preceding one. With no person to
// borrow from, a segment closed by an initial reads surname first.
func (r *Resolver) borrowSurnames(slots []slot) {
	surnameNear := func(i int) string {
		for j := i + 1; j < len(slots); j++ {
			if p, ok := slots[j].owner.(Person); ok {
				return p.LastName
			}
		}
		for j := i - 1; j >= 0; j-- {
			if p, ok := slots[j].owner.(Person); ok {
				return p.LastName
			}
		}
		return ""
	}

	for i := range slots {
		if !slots[i].pending {
			continue
		}
		var (
			person Person
			reason ReasonCode
		)
		if surname := surnameNear(i); surname != "" {
			person, reason = r.parser.Parse(slots[i].text, surname)
		} else {
			person, reason = r.parser.ParseSurnameFirst(slots[i].text)
		}
		if reason != "" {
			continue
		}
		person.OwnershipInterest = copyFraction(slots[i].interest)
		person.MailingAddress = slots[i].candidate.MailingAddress
		slots[i].owner = person
		slots[i].invalid = nil
		slots[i].pending = false
	}
}

func (r *Resolver) debugObserver() *observability.DebugObserver {
	if r.observer == nil {
		return nil
	}
	return r.observer.DebugObserver
}

func copyFraction(f *Fraction) *Fraction {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
