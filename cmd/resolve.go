// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/timeline"
)

func newResolveCmd(a *app) *cobra.Command {
	var mailing string

	cmd := &cobra.Command{
		Use:   "resolve [OWNER TEXT]...",
		Short: "Resolve owner cells into current owners",
		Long: `Resolves one or more owner cells, as scraped from a parcel page, into
persons and companies. The cells are treated as the parcel's current owners.
With no arguments, each non-blank line of standard input is one cell.`,
		Example: `  parcel-owners resolve "SMITH JOHN & JANE"
  parcel-owners resolve --profile deed_index "JOHN SMITH" "ACME HOLDINGS LLC"
  cut -f3 roll.tsv | parcel-owners resolve --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cells := args
			if len(cells) == 0 {
				var err error
				if cells, err = readLines(cmd); err != nil {
					return err
				}
			}

			var finish func(bool, string)
			if a.debug != nil {
				finish = a.debug.StartStep("cli", "resolve", fmt.Sprintf("%d cells", len(cells)))
			}

			result := a.builder().Build(timeline.Input{CurrentOwners: cells, MailingAddress: mailing})
			if finish != nil {
				finish(true, fmt.Sprintf("%d owners, %d invalid", len(result.OwnersByDate.Owners(timeline.CurrentKey)), len(result.InvalidOwners)))
			}

			out, err := formatters.Export(a.settings.Format, []formatters.ParcelReport{{Result: result}}, a.formatterOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&mailing, "mailing", "", "mailing address attached to every resolved owner")
	return cmd
}

func readLines(cmd *cobra.Command) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading owner cells: %w", err)
	}
	return lines, nil
}
