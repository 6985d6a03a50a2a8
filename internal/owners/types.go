// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"fmt"
	"strings"
)

// Owner is a resolved owner entity. It is implemented only by Person and
// Company; callers distinguish the two with a type switch.
type Owner interface {
	// Kind returns "person" or "company".
	Kind() string
	// Mailing returns the mailing address attached to the owner, if any.
	Mailing() string

	isOwner()
}

// Person is an individual owner. FirstName and LastName are always non-empty
// on values produced by the Resolver.
type Person struct {
	FirstName         string
	MiddleName        string
	LastName          string
	PrefixName        string
	SuffixName        string
	OwnershipInterest *Fraction
	MailingAddress    string
}

// Company is any non-person owner: corporations, trusts, estates, governments.
type Company struct {
	Name           string
	MailingAddress string
}

func (Person) Kind() string { return "person" }
func (Company) Kind() string { return "company" }

func (p Person) Mailing() string { return p.MailingAddress }
func (c Company) Mailing() string { return c.MailingAddress }

func (Person) isOwner() {}
func (Company) isOwner() {}

// FullName joins the populated name fields in reading order.
func (p Person) FullName() string {
	parts := make([]string, 0, 5)
	for _, s := range []string{p.PrefixName, p.FirstName, p.MiddleName, p.LastName, p.SuffixName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Fraction is a fractional ownership interest such as "1/2 INT".
type Fraction struct {
	Numerator   int
	Denominator int
	Decimal     float64
	Percentage  float64
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// ReasonCode explains why an owner candidate could not be resolved.
type ReasonCode string

const (
	ReasonUnparseableOrEmpty  ReasonCode = "unparseable_or_empty"
	ReasonMissingFirstName    ReasonCode = "person_missing_first_name"
	ReasonMissingLastName     ReasonCode = "person_missing_last_name"
	ReasonAmbiguousJointOwner ReasonCode = "ambiguous_joint_owner_string"
	ReasonContainsEtAl        ReasonCode = "contains_et_al"
	ReasonUnclassifiableOwner ReasonCode = "unclassifiable_owner"
)

// ReasonCodes lists every reason code in a stable order.
var ReasonCodes = []ReasonCode{
	ReasonUnparseableOrEmpty,
	ReasonMissingFirstName,
	ReasonMissingLastName,
	ReasonAmbiguousJointOwner,
	ReasonContainsEtAl,
	ReasonUnclassifiableOwner,
}

// ParseReasonCode returns the reason code spelled s.
func ParseReasonCode(s string) (ReasonCode, error) {
	for _, code := range ReasonCodes {
		if string(code) == s {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown reason code %q", s)
}

// InvalidOwnerEntry records a candidate that could not become an Owner.
type InvalidOwnerEntry struct {
	Raw    string     `json:"raw" yaml:"raw"`
	Reason ReasonCode `json:"reason" yaml:"reason"`
}

// Candidate is a single owner fragment produced by splitting one owner cell.
type Candidate struct {
	Raw               string
	HasComma          bool
	InheritedLastName string
	MailingAddress    string
	Date              string
}

// Cell is one scraped owner field together with its optional context.
type Cell struct {
	Text           string
	MailingAddress string
	Date           string
}

// Resolution is the output of resolving one or more owner cells.
type Resolution struct {
	Owners  []Owner
	Invalid []InvalidOwnerEntry
}
