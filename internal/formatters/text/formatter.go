// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/timeline"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct{}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable ownership timelines with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

// palette holds the colors for one Format call. Colors are disabled per
// call so concurrent formatting never flips the package-wide switch.
type palette struct {
	header  *color.Color
	current *color.Color
	dated   *color.Color
	unknown *color.Color
	company *color.Color
	person  *color.Color
	invalid *color.Color
	dim     *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		header:  color.New(color.FgWhite, color.Bold),
		current: color.New(color.FgGreen, color.Bold),
		dated:   color.New(color.FgCyan),
		unknown: color.New(color.FgYellow),
		company: color.New(color.FgMagenta),
		person:  color.New(color.FgBlue),
		invalid: color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.header, p.current, p.dated, p.unknown, p.company, p.person, p.invalid, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (f *Formatter) Format(reports []formatters.ParcelReport, options formatters.FormatterOptions) (string, error) {
	if len(reports) == 0 {
		return "No parcels processed.\n", nil
	}

	p := newPalette(options.NoColor)
	var builder strings.Builder
	totalOwners, totalInvalid := 0, 0

	for i, report := range reports {
		if i > 0 {
			builder.WriteString("\n")
		}
		n, bad := f.appendReport(&builder, report, p, options)
		totalOwners += n
		totalInvalid += bad
	}

	if len(reports) > 1 {
		builder.WriteString("\n")
		builder.WriteString(p.header.Sprintf("%d parcels, %d owner entries, %d invalid\n", len(reports), totalOwners, totalInvalid))
	}
	return builder.String(), nil
}

func (f *Formatter) appendReport(builder *strings.Builder, report formatters.ParcelReport, p palette, options formatters.FormatterOptions) (int, int) {
	title := "Parcel " + report.ParcelID
	if report.ParcelID == "" {
		title = "Owners"
	}
	if report.County != "" {
		title += " (" + report.County + ")"
	}
	builder.WriteString(p.header.Sprintln(title))

	t := report.Result.OwnersByDate
	if t == nil {
		t = timeline.New()
	}

	count := 0
	for _, key := range t.Keys() {
		list := t.Owners(key)
		builder.WriteString("  ")
		builder.WriteString(bucketColor(key, p).Sprintf("%s", key))
		builder.WriteString(p.dim.Sprintf(" (%d)\n", len(list)))
		if len(list) == 0 {
			builder.WriteString(p.dim.Sprint("    none\n"))
		}
		for _, o := range list {
			f.appendOwner(builder, o, p, options)
			count++
		}
	}

	invalid := report.Result.InvalidOwners
	if len(invalid) > 0 {
		builder.WriteString("  ")
		builder.WriteString(p.invalid.Sprintf("invalid (%d)\n", len(invalid)))
		for _, entry := range invalid {
			builder.WriteString(fmt.Sprintf("    %s %q %s\n", p.invalid.Sprint("!"), entry.Raw, p.dim.Sprintf("[%s]", entry.Reason)))
		}
	}
	return count, len(invalid)
}

func bucketColor(key string, p palette) *color.Color {
	switch {
	case key == timeline.CurrentKey:
		return p.current
	case strings.HasPrefix(key, "unknown_date_"):
		return p.unknown
	default:
		return p.dated
	}
}

func (f *Formatter) appendOwner(builder *strings.Builder, o owners.Owner, p palette, options formatters.FormatterOptions) {
	switch v := o.(type) {
	case owners.Person:
		line := fmt.Sprintf("    %s %s", p.person.Sprintf("%-7s", "person"), DisplayName(v))
		if v.OwnershipInterest != nil {
			line += p.dim.Sprintf(" [%s]", v.OwnershipInterest.String())
			if options.Verbose {
				line += p.dim.Sprintf(" %.4f%%", v.OwnershipInterest.Percentage)
			}
		}
		builder.WriteString(line + "\n")
	case owners.Company:
		builder.WriteString(fmt.Sprintf("    %s %s\n", p.company.Sprintf("%-7s", "company"), v.Name))
	default:
		return
	}
	if mailing := o.Mailing(); options.Verbose && mailing != "" {
		builder.WriteString(p.dim.Sprintf("            mail: %s\n", mailing))
	}
}

// DisplayName renders a person as "Last, First Middle Suffix" with the
// prefix leading.
func DisplayName(p owners.Person) string {
	var parts []string
	if p.PrefixName != "" {
		parts = append(parts, p.PrefixName)
	}
	given := strings.TrimSpace(p.FirstName + " " + p.MiddleName)
	name := p.LastName + ", " + given
	parts = append(parts, name)
	if p.SuffixName != "" {
		parts = append(parts, p.SuffixName)
	}
	return strings.Join(parts, " ")
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
