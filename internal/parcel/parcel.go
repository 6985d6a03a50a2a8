// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parcel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"parcel-owners/internal/timeline"
)

var (
	// ErrUnsupportedFormat is returned for files that are not json, yaml or toml.
	ErrUnsupportedFormat = errors.New("unsupported parcel document format")
	// ErrMissingParcelID is returned for documents without a parcel_id.
	ErrMissingParcelID = errors.New("parcel document has no parcel_id")
)

// Parcel is one scraped parcel: the current-owner cells and the sales
// history, already stripped of markup.
type Parcel struct {
	ParcelID       string          `json:"parcel_id" yaml:"parcel_id" toml:"parcel_id"`
	County         string          `json:"county,omitempty" yaml:"county,omitempty" toml:"county"`
	CurrentOwners  []string        `json:"current_owners" yaml:"current_owners" toml:"current_owners"`
	MailingAddress string          `json:"mailing_address,omitempty" yaml:"mailing_address,omitempty" toml:"mailing_address"`
	Sales          []timeline.Sale `json:"sales" yaml:"sales" toml:"sales"`
}

// Input converts the document into timeline builder input.
func (p *Parcel) Input() timeline.Input {
	return timeline.Input{
		ParcelID:       p.ParcelID,
		CurrentOwners:  p.CurrentOwners,
		MailingAddress: p.MailingAddress,
		Sales:          p.Sales,
	}
}

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads and validates one parcel document.
func LoadFile(path string) (*Parcel, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading parcel file: %w", err)
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a parcel document in the given format.
func Parse(data []byte, format Format) (*Parcel, error) {
	p := &Parcel{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, p)
	case FormatYAML:
		err = yaml.Unmarshal(data, p)
	case FormatTOML:
		err = toml.Unmarshal(data, p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing %s parcel document: %w", format, err)
	}

	p.ParcelID = strings.TrimSpace(p.ParcelID)
	if p.ParcelID == "" {
		return nil, ErrMissingParcelID
	}
	return p, nil
}
