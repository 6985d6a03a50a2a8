// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newVocabCmd(a *app) *cobra.Command {
	var listProfiles bool

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the effective vocabulary as YAML",
		Long: `Prints the vocabulary in effect: the embedded tables, extended by the
configured vocabulary file and the selected profile. The output is itself a
valid vocabulary file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listProfiles {
				for _, name := range a.cfg.ListProfiles() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, a.cfg.Profiles[name].Description)
				}
				return nil
			}

			data, err := yaml.Marshal(a.settings.Vocabulary)
			if err != nil {
				return fmt.Errorf("error encoding vocabulary: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&listProfiles, "list-profiles", false, "list the available profiles instead")
	return cmd
}
