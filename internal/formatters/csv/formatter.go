// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/timeline"
)

// Formatter implements CSV output formatting, one row per owner entry
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

var headers = []string{
	"parcel_id", "bucket", "type", "name", "first_name", "middle_name", "last_name",
	"prefix_name", "suffix_name", "ownership_interest_fraction", "ownership_interest_percentage",
	"mailing_address", "invalid_reason",
}

// Format writes a header row, then one row per owner in bucket order, then
// one row per invalid entry with the bucket column set to "invalid".
func (f *Formatter) Format(reports []formatters.ParcelReport, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder
	w := csv.NewWriter(&builder)

	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, report := range reports {
		t := report.Result.OwnersByDate
		if t == nil {
			t = timeline.New()
		}
		for _, key := range t.Keys() {
			for _, o := range t.Owners(key) {
				if err := w.Write(f.ownerRow(report.ParcelID, key, o)); err != nil {
					return "", fmt.Errorf("error writing CSV row: %w", err)
				}
			}
		}
		for _, entry := range report.Result.InvalidOwners {
			row := make([]string, len(headers))
			row[0], row[1], row[3], row[12] = report.ParcelID, "invalid", entry.Raw, string(entry.Reason)
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("error writing CSV row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error formatting CSV: %w", err)
	}
	return builder.String(), nil
}

func (f *Formatter) ownerRow(parcelID, bucket string, o owners.Owner) []string {
	row := make([]string, len(headers))
	row[0], row[1], row[2] = parcelID, bucket, o.Kind()
	row[11] = o.Mailing()

	switch v := o.(type) {
	case owners.Person:
		row[3] = v.FullName()
		row[4], row[5], row[6], row[7], row[8] = v.FirstName, v.MiddleName, v.LastName, v.PrefixName, v.SuffixName
		if v.OwnershipInterest != nil {
			row[9] = v.OwnershipInterest.String()
			row[10] = strconv.FormatFloat(v.OwnershipInterest.Percentage, 'f', -1, 64)
		}
	case owners.Company:
		row[3] = v.Name
	}
	return row
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
