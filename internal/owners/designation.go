// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"regexp"
	"strings"
)

var repeatedCommaRe = regexp.MustCompile(`,(\s*,)+`)

// DesignationResult is the outcome of stripping legal designations.
type DesignationResult struct {
	CleanedName string
	// Removed lists the removed designations upper-cased, in removal order.
	// It is nil when nothing was removed.
	Removed []string
}

// HasEntityDesignation reports whether any removed designation denotes an
// entity (a trust or an estate) rather than a capacity held by a person.
func (r DesignationResult) HasEntityDesignation(vocab *Vocabulary) bool {
	for _, d := range r.Removed {
		if vocab.isEntityDesignation(d) {
			return true
		}
	}
	return false
}

// DesignationStripper removes fiduciary, estate, tenancy and marital
// qualifiers from a normalized owner string.
type DesignationStripper struct {
	vocab *Vocabulary
}

// NewDesignationStripper creates a stripper backed by vocab.
func NewDesignationStripper(vocab *Vocabulary) *DesignationStripper {
	return &DesignationStripper{vocab: vocab}
}

// Strip removes every designation occurrence, repeating until none remain so
// that adjacent and overlapping designations are all removed.
func (d *DesignationStripper) Strip(name string) DesignationResult {
	re := d.vocab.compiled.designation
	result := DesignationResult{CleanedName: collapseWhitespace(name)}
	if re == nil {
		return result
	}

	s := result.CleanedName
	for {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			break
		}
		// Group 2 is the designation itself; groups 1 and 3 are the
		// neighbouring characters, which are kept.
		phrase := strings.Join(strings.Fields(strings.ToUpper(s[loc[4]:loc[5]])), " ")
		result.Removed = append(result.Removed, phrase)
		s = s[:loc[4]] + " " + s[loc[5]:]
	}

	s = repeatedCommaRe.ReplaceAllString(s, ",")
	result.CleanedName = strings.Trim(collapseWhitespace(s), edgePunctuation)
	return result
}
