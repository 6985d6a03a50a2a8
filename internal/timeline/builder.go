// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"sort"
	"strings"
	"time"

	"parcel-owners/internal/observability"
	"parcel-owners/internal/owners"
)

const isoDate = "2006-01-02"

// Sale is one row of a sales-history table.
type Sale struct {
	Date    string `json:"date" yaml:"date" toml:"date"`
	Grantor string `json:"grantor" yaml:"grantor" toml:"grantor"`
	Grantee string `json:"grantee" yaml:"grantee" toml:"grantee"`
}

// Input is everything the builder needs for one parcel.
type Input struct {
	ParcelID       string
	CurrentOwners  []string
	MailingAddress string
	Sales          []Sale
}

// Builder assembles ownership timelines. It keeps no state between calls.
type Builder struct {
	resolver *owners.Resolver
	observer *observability.StandardObserver
}

// NewBuilder creates a builder around resolver. A nil observer disables
// logging.
func NewBuilder(resolver *owners.Resolver, observer *observability.StandardObserver) *Builder {
	return &Builder{resolver: resolver, observer: observer}
}

type datedSale struct {
	Sale
	date     string
	grantors []owners.Owner
}

// Build resolves every owner text of one parcel into a timeline. Sales are
// processed in ascending date order; sales without a usable ISO date come
// last in their input order and only ever feed unknown_date_N buckets.
func (b *Builder) Build(in Input) Result {
	finish := b.observer.StartTiming("timeline", "build", in.ParcelID)

	dated, undated := partitionSales(in.Sales)
	t := New()
	var invalid []owners.InvalidOwnerEntry

	// Grantees of each dated sale, resolved once and reused for grantor
	// accounting.
	grantees := make([][]owners.Owner, len(dated))
	for i, s := range dated {
		res := b.resolve(s.Grantee)
		grantees[i] = res.Owners
		invalid = append(invalid, res.Invalid...)
		if len(res.Owners) > 0 {
			t.Add(s.date, res.Owners...)
		}

		grantors := b.resolve(s.Grantor)
		invalid = append(invalid, grantors.Invalid...)
		dated[i].grantors = grantors.Owners
	}

	placed := map[string]bool{}
	addUnknown := func(list []owners.Owner) {
		var fresh []owners.Owner
		for _, o := range list {
			key := owners.IdentityKey(o)
			if placed[key] {
				continue
			}
			placed[key] = true
			fresh = append(fresh, o)
		}
		if len(fresh) > 0 {
			t.Add(t.NextUnknownKey(), fresh...)
		}
	}

	for i, s := range dated {
		known := map[string]bool{}
		for j := range dated {
			if dated[j].date <= s.date {
				for _, o := range grantees[j] {
					known[owners.IdentityKey(o)] = true
				}
			}
		}
		var unaccounted []owners.Owner
		for _, o := range dated[i].grantors {
			if !known[owners.IdentityKey(o)] {
				unaccounted = append(unaccounted, o)
			}
		}
		addUnknown(unaccounted)
	}

	if len(undated) > 0 {
		everGrantee := map[string]bool{}
		for _, list := range grantees {
			for _, o := range list {
				everGrantee[owners.IdentityKey(o)] = true
			}
		}
		for _, s := range undated {
			gr := b.resolve(s.Grantee)
			invalid = append(invalid, gr.Invalid...)
			for _, o := range gr.Owners {
				everGrantee[owners.IdentityKey(o)] = true
			}

			gt := b.resolve(s.Grantor)
			invalid = append(invalid, gt.Invalid...)
			var unaccounted []owners.Owner
			for _, o := range gt.Owners {
				if !everGrantee[owners.IdentityKey(o)] {
					unaccounted = append(unaccounted, o)
				}
			}
			addUnknown(unaccounted)
			addUnknown(gr.Owners)
		}
	}

	cells := make([]owners.Cell, 0, len(in.CurrentOwners))
	for _, text := range in.CurrentOwners {
		if strings.TrimSpace(text) == "" {
			continue
		}
		cells = append(cells, owners.Cell{Text: text, MailingAddress: in.MailingAddress, Date: CurrentKey})
	}
	if len(cells) > 0 {
		current := b.resolver.ResolveAll(cells)
		t.Add(CurrentKey, current.Owners...)
		invalid = append(invalid, current.Invalid...)
	}

	result := Result{OwnersByDate: t, InvalidOwners: owners.DedupeInvalid(invalid)}
	if b.observer != nil && b.observer.DebugObserver != nil {
		for _, key := range t.Keys() {
			b.observer.DebugObserver.LogBucket(in.ParcelID, key, len(t.Owners(key)))
		}
	}
	finish(true, map[string]interface{}{
		"buckets": t.Len(),
		"invalid": len(result.InvalidOwners),
	})
	return result
}

// resolve treats a blank sale column as absent rather than invalid.
func (b *Builder) resolve(text string) owners.Resolution {
	if strings.TrimSpace(text) == "" {
		return owners.Resolution{}
	}
	return b.resolver.Resolve(text, "")
}

// partitionSales splits sales into those with an ISO date, sorted
// ascending (stable for equal dates), and the rest in input order.
func partitionSales(sales []Sale) (dated []datedSale, undated []Sale) {
	for _, s := range sales {
		if d, ok := isoDay(s.Date); ok {
			dated = append(dated, datedSale{Sale: s, date: d})
			continue
		}
		if strings.TrimSpace(s.Grantee) == "" && strings.TrimSpace(s.Grantor) == "" {
			continue
		}
		undated = append(undated, s)
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].date < dated[j].date })
	return dated, undated
}

// isoDay accepts "YYYY-MM-DD", optionally followed by a time part.
func isoDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(isoDate) && (s[len(isoDate)] == 'T' || s[len(isoDate)] == ' ') {
		s = s[:len(isoDate)]
	}
	if _, err := time.Parse(isoDate, s); err != nil {
		return "", false
	}
	return s, true
}
