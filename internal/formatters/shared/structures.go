// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"parcel-owners/internal/formatters"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/timeline"
)

// ParcelOutput is the JSON/YAML shape of one parcel report.
type ParcelOutput struct {
	ParcelID      string                     `json:"parcel_id,omitempty" yaml:"parcel_id,omitempty"`
	County        string                     `json:"county,omitempty" yaml:"county,omitempty"`
	OwnersByDate  *timeline.Timeline         `json:"owners_by_date" yaml:"owners_by_date"`
	InvalidOwners []owners.InvalidOwnerEntry `json:"invalid_owners" yaml:"invalid_owners"`
}

// ConvertReports converts reports to their JSON/YAML shape. Missing
// timelines and invalid lists become empty values so both encoders write
// them out.
func ConvertReports(reports []formatters.ParcelReport) []ParcelOutput {
	out := make([]ParcelOutput, 0, len(reports))
	for _, r := range reports {
		o := ParcelOutput{
			ParcelID:      r.ParcelID,
			County:        r.County,
			OwnersByDate:  r.Result.OwnersByDate,
			InvalidOwners: r.Result.InvalidOwners,
		}
		if o.OwnersByDate == nil {
			o.OwnersByDate = timeline.New()
		}
		if o.InvalidOwners == nil {
			o.InvalidOwners = []owners.InvalidOwnerEntry{}
		}
		out = append(out, o)
	}
	return out
}

// Document returns a single object for one report and a list otherwise.
func Document(reports []formatters.ParcelReport) interface{} {
	converted := ConvertReports(reports)
	if len(converted) == 1 {
		return converted[0]
	}
	return converted
}
