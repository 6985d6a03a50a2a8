// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"parcel-owners/internal/owners"
)

const (
	// CurrentKey is the bucket holding the owners shown as current.
	CurrentKey = "current"

	unknownPrefix = "unknown_date_"
)

// UnknownKey returns the key of the n-th synthetic bucket.
func UnknownKey(n int) string {
	return unknownPrefix + strconv.Itoa(n)
}

// Timeline maps bucket keys to owner lists. Keys enumerate as
// unknown_date_N (ascending N), then ISO dates (ascending), then current.
// The current bucket always exists.
type Timeline struct {
	buckets map[string][]owners.Owner
	unknown int
}

// New returns a timeline holding only an empty current bucket.
func New() *Timeline {
	return &Timeline{buckets: map[string][]owners.Owner{CurrentKey: nil}}
}

// Add appends owners to the bucket at key, deduplicating within the bucket.
// Adding to a new key creates it even when list is empty.
func (t *Timeline) Add(key string, list ...owners.Owner) {
	t.buckets[key] = owners.Dedupe(append(t.buckets[key], list...))
	if n, ok := unknownIndex(key); ok && n > t.unknown {
		t.unknown = n
	}
}

// NextUnknownKey reserves the next unknown_date_N key.
func (t *Timeline) NextUnknownKey() string {
	t.unknown++
	return UnknownKey(t.unknown)
}

// Owners returns the owners of one bucket.
func (t *Timeline) Owners(key string) []owners.Owner {
	return t.buckets[key]
}

// Has reports whether the bucket exists.
func (t *Timeline) Has(key string) bool {
	_, ok := t.buckets[key]
	return ok
}

// Len returns the number of buckets, current included.
func (t *Timeline) Len() int {
	return len(t.buckets)
}

// Keys returns the bucket keys in enumeration order.
func (t *Timeline) Keys() []string {
	keys := make([]string, 0, len(t.buckets))
	for k := range t.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}

func keyRank(key string) int {
	switch {
	case strings.HasPrefix(key, unknownPrefix):
		return 0
	case key == CurrentKey:
		return 2
	default:
		return 1
	}
}

func keyLess(a, b string) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	if ra == 0 {
		na, okA := unknownIndex(a)
		nb, okB := unknownIndex(b)
		if okA && okB && na != nb {
			return na < nb
		}
	}
	return a < b
}

func unknownIndex(key string) (int, bool) {
	if !strings.HasPrefix(key, unknownPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, unknownPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes the buckets in enumeration order. Empty buckets are
// written as [] rather than null.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(nonNil(t.buckets[key]))
		if err != nil {
			return nil, fmt.Errorf("failed to encode bucket %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds a mapping node so yaml.v3 keeps the enumeration order.
func (t *Timeline) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range t.Keys() {
		value := &yaml.Node{}
		if err := value.Encode(nonNil(t.buckets[key])); err != nil {
			return nil, fmt.Errorf("failed to encode bucket %s: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return node, nil
}

func nonNil(list []owners.Owner) []owners.Owner {
	if list == nil {
		return []owners.Owner{}
	}
	return list
}

// Result is the complete outcome for one parcel.
type Result struct {
	OwnersByDate  *Timeline                  `json:"owners_by_date" yaml:"owners_by_date"`
	InvalidOwners []owners.InvalidOwnerEntry `json:"invalid_owners" yaml:"invalid_owners"`
}

// MarshalJSON writes invalid_owners as [] when there are none.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	p := plain(r)
	if p.InvalidOwners == nil {
		p.InvalidOwners = []owners.InvalidOwnerEntry{}
	}
	if p.OwnersByDate == nil {
		p.OwnersByDate = New()
	}
	return json.Marshal(p)
}
