// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/timeline"
)

func TestFormatter_Format(t *testing.T) {
	tl := timeline.New()
	tl.Add(timeline.CurrentKey,
		owners.Person{FirstName: "John", LastName: "Smith", OwnershipInterest: owners.NewFraction(1, 4), MailingAddress: "1 ELM, APT 2"},
		owners.Company{Name: "Acme LLC"},
	)
	report := formatters.ParcelReport{
		ParcelID: "X-1",
		Result: timeline.Result{
			OwnersByDate:  tl,
			InvalidOwners: []owners.InvalidOwnerEntry{{Raw: "SMITH", Reason: owners.ReasonMissingFirstName}},
		},
	}

	out, err := NewFormatter().Format([]formatters.ParcelReport{report}, formatters.FormatterOptions{})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"X-1", "current", "person", "John Smith", "John", "", "Smith", "", "", "1/4", "25", "1 ELM, APT 2", ""}, rows[1])
	assert.Equal(t, "company", rows[2][2])
	assert.Equal(t, "Acme LLC", rows[2][3])
	assert.Equal(t, []string{"X-1", "invalid", "", "SMITH", "", "", "", "", "", "", "", "", "person_missing_first_name"}, rows[3])
}
