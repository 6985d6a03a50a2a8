// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package owners

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fractionRe matches "N/D" with an optional "UND"/"UNDIVIDED" and
// "INT"/"INTEREST" trailer.
var fractionRe = regexp.MustCompile(`(?i)\b(\d+)\s*/\s*(\d+)(?:\s+(?:UND|UNDIVIDED)\b)?(?:\s+(?:INT|INTEREST)\b)?`)

// InterestResult is the outcome of ExtractInterest.
type InterestResult struct {
	// Fraction is nil when no usable fraction was found.
	Fraction *Fraction
	Cleaned  string
}

// ExtractInterest finds the first ownership fraction in raw and returns it
// together with the text with every fraction annotation removed. A zero
// denominator removes the annotation without yielding a fraction.
func ExtractInterest(raw string) InterestResult {
	var result InterestResult
	for _, m := range fractionRe.FindAllStringSubmatch(raw, -1) {
		if result.Fraction != nil {
			break
		}
		num, errN := strconv.Atoi(m[1])
		den, errD := strconv.Atoi(m[2])
		if errN != nil || errD != nil {
			continue
		}
		result.Fraction = NewFraction(num, den)
	}
	cleaned := fractionRe.ReplaceAllString(raw, " ")
	result.Cleaned = strings.Trim(collapseWhitespace(cleaned), edgePunctuation)
	return result
}

// NewFraction builds a fraction with its derived decimal (6 places) and
// percentage (4 places). It returns nil for a zero denominator.
func NewFraction(numerator, denominator int) *Fraction {
	if denominator == 0 {
		return nil
	}
	decimal := roundTo(float64(numerator)/float64(denominator), 6)
	return &Fraction{
		Numerator:   numerator,
		Denominator: denominator,
		Decimal:     decimal,
		Percentage:  roundTo(decimal*100, 4),
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
