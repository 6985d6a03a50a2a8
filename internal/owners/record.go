// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// personRecord is the wire form of a Person. Absent optional fields are
// written as explicit nulls.
type personRecord struct {
	Type                        string   `json:"type" yaml:"type"`
	FirstName                   string   `json:"first_name" yaml:"first_name"`
	MiddleName                  *string  `json:"middle_name" yaml:"middle_name"`
	LastName                    string   `json:"last_name" yaml:"last_name"`
	PrefixName                  *string  `json:"prefix_name" yaml:"prefix_name"`
	SuffixName                  *string  `json:"suffix_name" yaml:"suffix_name"`
	OwnershipInterestFraction   *string  `json:"ownership_interest_fraction" yaml:"ownership_interest_fraction"`
	OwnershipInterestDecimal    *float64 `json:"ownership_interest_decimal" yaml:"ownership_interest_decimal"`
	OwnershipInterestPercentage *float64 `json:"ownership_interest_percentage" yaml:"ownership_interest_percentage"`
	MailingAddress              *string  `json:"mailing_address" yaml:"mailing_address"`
}

type companyRecord struct {
	Type           string  `json:"type" yaml:"type"`
	Name           string  `json:"name" yaml:"name"`
	MailingAddress *string `json:"mailing_address" yaml:"mailing_address"`
}

func (p Person) record() personRecord {
	r := personRecord{
		Type:           p.Kind(),
		FirstName:      p.FirstName,
		MiddleName:     optional(p.MiddleName),
		LastName:       p.LastName,
		PrefixName:     optional(p.PrefixName),
		SuffixName:     optional(p.SuffixName),
		MailingAddress: optional(p.MailingAddress),
	}
	if f := p.OwnershipInterest; f != nil {
		fraction, decimal, percentage := f.String(), f.Decimal, f.Percentage
		r.OwnershipInterestFraction = &fraction
		r.OwnershipInterestDecimal = &decimal
		r.OwnershipInterestPercentage = &percentage
	}
	return r
}

func (c Company) record() companyRecord {
	return companyRecord{Type: c.Kind(), Name: c.Name, MailingAddress: optional(c.MailingAddress)}
}

// MarshalJSON encodes the person as a tagged record.
func (p Person) MarshalJSON() ([]byte, error) { return json.Marshal(p.record()) }

// MarshalYAML encodes the person as a tagged record.
func (p Person) MarshalYAML() (interface{}, error) { return p.record(), nil }

// MarshalJSON encodes the company as a tagged record.
func (c Company) MarshalJSON() ([]byte, error) { return json.Marshal(c.record()) }

// MarshalYAML encodes the company as a tagged record.
func (c Company) MarshalYAML() (interface{}, error) { return c.record(), nil }

// DecodeOwner reads one tagged JSON record written by MarshalJSON.
func DecodeOwner(data []byte) (Owner, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode owner: %w", err)
	}

	switch head.Type {
	case "person":
		var r personRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to decode person: %w", err)
		}
		p := Person{
			FirstName:      r.FirstName,
			MiddleName:     deref(r.MiddleName),
			LastName:       r.LastName,
			PrefixName:     deref(r.PrefixName),
			SuffixName:     deref(r.SuffixName),
			MailingAddress: deref(r.MailingAddress),
		}
		if r.OwnershipInterestFraction != nil {
			f, err := ParseFraction(*r.OwnershipInterestFraction)
			if err != nil {
				return nil, err
			}
			p.OwnershipInterest = f
		}
		return p, nil
	case "company":
		var r companyRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to decode company: %w", err)
		}
		return Company{Name: r.Name, MailingAddress: deref(r.MailingAddress)}, nil
	}
	return nil, fmt.Errorf("unknown owner type %q", head.Type)
}

// ParseFraction reads "N/D". A zero denominator is an error.
func ParseFraction(s string) (*Fraction, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return nil, fmt.Errorf("invalid fraction %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return nil, fmt.Errorf("invalid fraction %q: %w", s, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return nil, fmt.Errorf("invalid fraction %q: %w", s, err)
	}
	f := NewFraction(n, d)
	if f == nil {
		return nil, fmt.Errorf("invalid fraction %q: zero denominator", s)
	}
	return f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
