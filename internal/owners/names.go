// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

// Embedded given-name table
//
//go:embed data/given_names.txt
var givenNamesData []byte

// GivenNames is a read-only set of common given names, keyed upper-case.
type GivenNames map[string]bool

var (
	givenNames     GivenNames
	givenNamesOnce sync.Once
	givenNamesErr  error
)

// LoadGivenNames parses the embedded given-name table.
// Uses sync.Once so the table is built at most once per process.
func LoadGivenNames() (GivenNames, error) {
	givenNamesOnce.Do(func() {
		givenNames, givenNamesErr = parseGivenNames(givenNamesData)
	})
	return givenNames, givenNamesErr
}

func parseGivenNames(data []byte) (GivenNames, error) {
	names := make(GivenNames, 400)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if isValidName(name) {
			names[strings.ToUpper(name)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading given names: %w", err)
	}
	return names, nil
}

// isValidName performs basic validation on name data
func isValidName(name string) bool {
	if len(name) < 2 || len(name) > 30 {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '\'') {
			return false
		}
	}
	return true
}

// Has reports whether token is a known given name. Nil sets know nothing.
func (g GivenNames) Has(token string) bool {
	if g == nil {
		return false
	}
	return g[strings.ToUpper(strings.Trim(token, ".,"))]
}
