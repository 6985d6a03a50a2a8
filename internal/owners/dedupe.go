// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"strings"
	"unicode"
)

// IdentityKey returns the case-insensitive key two owners share when they
// denote the same entity. Mailing address and interest are not part of it.
func IdentityKey(o Owner) string {
	switch v := o.(type) {
	case Person:
		return "person:" + strings.ToLower(strings.Join([]string{
			v.PrefixName, v.FirstName, v.MiddleName, v.LastName, v.SuffixName,
		}, "|"))
	case *Person:
		return IdentityKey(*v)
	case Company:
		return "company:" + companyKey(v.Name)
	case *Company:
		return IdentityKey(*v)
	}
	return ""
}

// companyKey drops punctuation so "Acme, Llc" and "Acme Llc" compare equal.
func companyKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == ',', r == '.':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return collapseWhitespace(b.String())
}

// Dedupe keeps the first occurrence of each identity key in order. Later
// duplicates contribute fields the kept owner lacks: mailing address,
// prefix, middle name, suffix and ownership interest.
func Dedupe(owners []Owner) []Owner {
	if len(owners) == 0 {
		return nil
	}
	out := make([]Owner, 0, len(owners))
	index := make(map[string]int, len(owners))
	for _, o := range owners {
		key := IdentityKey(o)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, o)
			continue
		}
		out[i] = merge(out[i], o)
	}
	return out
}

func merge(kept, dup Owner) Owner {
	switch k := kept.(type) {
	case Person:
		d, ok := dup.(Person)
		if !ok {
			return kept
		}
		k.MailingAddress = firstNonEmpty(k.MailingAddress, d.MailingAddress)
		k.PrefixName = firstNonEmpty(k.PrefixName, d.PrefixName)
		k.MiddleName = firstNonEmpty(k.MiddleName, d.MiddleName)
		k.SuffixName = firstNonEmpty(k.SuffixName, d.SuffixName)
		if k.OwnershipInterest == nil {
			k.OwnershipInterest = d.OwnershipInterest
		}
		return k
	case Company:
		if d, ok := dup.(Company); ok {
			k.MailingAddress = firstNonEmpty(k.MailingAddress, d.MailingAddress)
		}
		return k
	}
	return kept
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// DedupeInvalid removes entries repeating an earlier raw text and reason.
func DedupeInvalid(entries []InvalidOwnerEntry) []InvalidOwnerEntry {
	if len(entries) == 0 {
		return entries
	}
	seen := make(map[InvalidOwnerEntry]bool, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
