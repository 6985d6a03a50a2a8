// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"parcel-owners/internal/config"
	"parcel-owners/internal/formatters"
	_ "parcel-owners/internal/formatters/csv"
	_ "parcel-owners/internal/formatters/json"
	_ "parcel-owners/internal/formatters/text"
	_ "parcel-owners/internal/formatters/yaml"
	"parcel-owners/internal/observability"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/timeline"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	format     string
	profile    string
	noColor    bool
	verbose    bool
	debug      bool
}

// app carries what the persistent pre-run resolved for the command.
type app struct {
	flags    globalFlags
	cfg      *config.Config
	settings *config.Settings
	observer *observability.StandardObserver
	debug    *observability.DebugObserver
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "parcel-owners",
		Short: "Resolve scraped parcel owner text into structured ownership timelines",
		Long: `parcel-owners turns raw owner strings from county assessor and recorder
pages into structured persons and companies, and assembles each parcel's
sales history into an ownership timeline keyed by date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default: search parcel-owners.yaml, .parcel-owners.yaml, then the user config dir)")
	pf.StringVarP(&a.flags.format, "format", "f", "", "output format: "+strings.Join(config.Formats, ", "))
	pf.StringVarP(&a.flags.profile, "profile", "p", "", "county profile to apply (e.g. assessor_roll, deed_index)")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "show mailing addresses and log failed operations to stderr")
	pf.BoolVar(&a.flags.debug, "debug", false, "log every operation and resolution step to stderr")

	root.AddCommand(
		newResolveCmd(a),
		newTimelineCmd(a),
		newVocabCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, applies the profile and flags, and builds the
// observer.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfigOrDefault(a.flags.configFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Using default configuration\n")
	}
	a.cfg = cfg

	settings, err := cfg.Effective(a.flags.profile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		settings.Format = a.flags.format
	}
	if flags.Changed("verbose") {
		settings.Verbose = a.flags.verbose
	}
	if flags.Changed("debug") {
		settings.Debug = a.flags.debug
	}
	if flags.Changed("no-color") {
		settings.NoColor = a.flags.noColor
	}
	if !isTerminal(cmd.OutOrStdout()) {
		settings.NoColor = true
	}
	if _, ok := formatters.Get(settings.Format); !ok {
		return fmt.Errorf("%w %q (available: %s)", config.ErrInvalidFormat, settings.Format, strings.Join(formatters.List(), ", "))
	}
	a.settings = settings

	switch {
	case settings.Debug:
		a.debug = observability.NewDebugObserver(cmd.ErrOrStderr())
		a.observer = a.debug.StandardObserver
	case settings.Verbose:
		a.observer = observability.NewStandardObserver(observability.ObservabilityMetrics, cmd.ErrOrStderr())
	}
	return nil
}

func (a *app) resolver() *owners.Resolver {
	return owners.NewResolver(
		owners.WithVocabulary(a.settings.Vocabulary),
		owners.WithNameOrder(a.settings.NameOrder),
		owners.WithObserver(a.observer),
	)
}

func (a *app) builder() *timeline.Builder {
	return timeline.NewBuilder(a.resolver(), a.observer)
}

func (a *app) formatterOptions() formatters.FormatterOptions {
	return formatters.FormatterOptions{Verbose: a.settings.Verbose, NoColor: a.settings.NoColor}
}

// isTerminal reports whether w is a terminal. Anything that is not an
// *os.File (buffers in tests, pipes wrapped by cobra) is not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
