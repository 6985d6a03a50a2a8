// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"parcel-owners/internal/owners"
)

func TestTimeline_KeysOrder(t *testing.T) {
	tl := New()
	tl.Add("2019-04-01", owners.Company{Name: "Acme Llc"})
	tl.Add(UnknownKey(10))
	tl.Add("2001-12-31", owners.Person{FirstName: "John", LastName: "Doe"})
	tl.Add(UnknownKey(2))

	assert.Equal(t, []string{
		"unknown_date_2", "unknown_date_10", "2001-12-31", "2019-04-01", CurrentKey,
	}, tl.Keys())
	assert.Equal(t, "unknown_date_11", tl.NextUnknownKey())
}

func TestTimeline_AddDedupes(t *testing.T) {
	tl := New()
	tl.Add(CurrentKey, owners.Person{FirstName: "John", LastName: "Doe"})
	tl.Add(CurrentKey, owners.Person{FirstName: "JOHN", LastName: "DOE", MailingAddress: "PO BOX 1"})

	got := tl.Owners(CurrentKey)
	require.Len(t, got, 1)
	assert.Equal(t, "PO BOX 1", got[0].Mailing())
}

func TestResult_MarshalJSON(t *testing.T) {
	tl := New()
	tl.Add("2020-01-05", owners.Person{FirstName: "John", LastName: "Smith"})
	tl.Add(tl.NextUnknownKey(), owners.Company{Name: "Acme Llc"})

	data, err := json.Marshal(Result{OwnersByDate: tl})
	require.NoError(t, err)

	s := string(data)
	unknown := strings.Index(s, `"unknown_date_1"`)
	dated := strings.Index(s, `"2020-01-05"`)
	current := strings.Index(s, `"current"`)
	require.True(t, unknown >= 0 && dated >= 0 && current >= 0, s)
	assert.Less(t, unknown, dated)
	assert.Less(t, dated, current)

	assert.JSONEq(t, `{
		"owners_by_date": {
			"unknown_date_1": [{"type": "company", "name": "Acme Llc", "mailing_address": null}],
			"2020-01-05": [{
				"type": "person", "first_name": "John", "middle_name": null, "last_name": "Smith",
				"prefix_name": null, "suffix_name": null,
				"ownership_interest_fraction": null, "ownership_interest_decimal": null,
				"ownership_interest_percentage": null, "mailing_address": null
			}],
			"current": []
		},
		"invalid_owners": []
	}`, s)
}

func TestResult_MarshalYAML(t *testing.T) {
	tl := New()
	tl.Add("2020-01-05", owners.Person{FirstName: "John", LastName: "Smith"})
	tl.Add(tl.NextUnknownKey(), owners.Company{Name: "Acme Llc"})

	data, err := yaml.Marshal(Result{
		OwnersByDate:  tl,
		InvalidOwners: []owners.InvalidOwnerEntry{{Raw: "ET AL", Reason: owners.ReasonContainsEtAl}},
	})
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &doc))
	root := doc.Content[0]
	require.Equal(t, "owners_by_date", root.Content[0].Value)

	buckets := root.Content[1]
	var keys []string
	for i := 0; i < len(buckets.Content); i += 2 {
		keys = append(keys, buckets.Content[i].Value)
	}
	assert.Equal(t, []string{"unknown_date_1", "2020-01-05", CurrentKey}, keys)
	assert.Contains(t, string(data), "reason: contains_et_al")
}
