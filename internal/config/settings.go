// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"parcel-owners/internal/owners"
)

// Settings is the effective configuration for one run after the selected
// profile has been applied over the defaults.
type Settings struct {
	Profile    string
	Format     string
	NameOrder  owners.NameOrder
	Vocabulary *owners.Vocabulary
	Workers    int
	Verbose    bool
	Debug      bool
	NoColor    bool
}

// Effective merges the named profile over the defaults. An empty profile
// name selects the defaults alone. The vocabulary is built in layers:
// embedded tables, the defaults' extension file, the profile's extension
// file, then the profile's inline extend block.
func (c *Config) Effective(profileName string) (*Settings, error) {
	s := &Settings{
		Profile: profileName,
		Format:  c.Defaults.Format,
		Workers: c.Defaults.Workers,
		Verbose: c.Defaults.Verbose,
		Debug:   c.Defaults.Debug,
		NoColor: c.Defaults.NoColor,
	}
	orderText := c.Defaults.NameOrder

	var profile *Profile
	if profileName != "" {
		profile = c.GetProfile(profileName)
		if profile == nil {
			return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProfile, profileName, c.ListProfiles())
		}
		if profile.Format != "" {
			s.Format = profile.Format
		}
		if profile.NameOrder != "" {
			orderText = profile.NameOrder
		}
	}

	order, err := owners.ParseNameOrder(orderText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNameOrder, err)
	}
	s.NameOrder = order

	vocab, err := owners.DefaultVocabulary()
	if err != nil {
		return nil, err
	}
	if c.Defaults.Vocabulary != "" {
		if vocab, err = extendFromFile(vocab, c.Defaults.Vocabulary); err != nil {
			return nil, err
		}
	}
	if profile != nil {
		if profile.Vocabulary != "" {
			if vocab, err = extendFromFile(vocab, profile.Vocabulary); err != nil {
				return nil, err
			}
		}
		if profile.Extend != nil {
			if vocab, err = vocab.Extend(profile.Extend); err != nil {
				return nil, fmt.Errorf("profile %s: %w", profileName, err)
			}
		}
	}
	s.Vocabulary = vocab

	return s, nil
}

// extendFromFile layers an extension file over base. LoadVocabularyFile
// merges over the embedded tables, so the result is merged again over base
// to keep earlier layers.
func extendFromFile(base *owners.Vocabulary, path string) (*owners.Vocabulary, error) {
	ext, err := owners.LoadVocabularyFile(path)
	if err != nil {
		return nil, err
	}
	return base.Extend(ext)
}
