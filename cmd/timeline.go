// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/parallel"
	"parcel-owners/internal/parcel"
	"parcel-owners/internal/resilience"
	"parcel-owners/internal/sink"
)

type timelineFlags struct {
	outDir  string
	useSink bool
	workers int
}

func newTimelineCmd(a *app) *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline FILE|DIR...",
		Short: "Build ownership timelines for parcel documents",
		Long: `Builds the ownership timeline of each parcel document (.json, .yaml, .yml
or .toml). Directories contribute the parcel documents directly inside them.
Parcels are processed independently on a pool of workers.

Without --out-dir every timeline is written to standard output; with it,
one <parcel_id><ext> file is written per parcel. --sink also stores each
timeline in the configured database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, a, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.outDir, "out-dir", "o", "", "write one file per parcel into this directory")
	cmd.Flags().BoolVar(&flags.useSink, "sink", false, "store timelines in the configured database")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "number of parallel workers (default: config or CPU count, max 8)")
	return cmd
}

func runTimeline(cmd *cobra.Command, a *app, flags timelineFlags, args []string) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	files, err := collectParcelFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no parcel documents found")
	}

	workers := a.settings.Workers
	if cmd.Flags().Changed("workers") {
		workers = flags.workers
	}

	var progress parallel.ProgressCallback
	if a.settings.Verbose && !a.settings.Debug {
		progress = func(completed, total int, currentFile string) {
			fmt.Fprintf(stderr, "\r[%d/%d] %s", completed, total, filepath.Base(currentFile))
			if completed == total {
				fmt.Fprintln(stderr)
			}
		}
	}

	processor := parallel.NewParallelProcessor(workers, a.builder(), a.observer)
	results, stats := processor.ProcessFilesWithProgress(ctx, files, progress)

	var reports []formatters.ParcelReport
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", r.Err)
			continue
		}
		reports = append(reports, formatters.ParcelReport{
			ParcelID: r.ParcelID,
			County:   r.Parcel.County,
			Result:   r.Output,
		})
	}

	if flags.useSink {
		if err := saveReports(cmd, a, reports); err != nil {
			return err
		}
	}

	if flags.outDir != "" {
		if err := writeReports(a, flags.outDir, reports); err != nil {
			return err
		}
	} else if len(reports) > 0 {
		out, err := formatters.Export(a.settings.Format, reports, a.formatterOptions())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
	}

	if a.settings.Verbose {
		fmt.Fprintf(stderr, "Processed %d/%d parcel documents in %s (%d invalid owner entries)\n",
			stats.ProcessedFiles, stats.TotalFiles, stats.TotalDuration.Round(time.Millisecond), stats.InvalidOwners)
	}
	if stats.FailedFiles > 0 {
		return fmt.Errorf("%d of %d parcel documents failed", stats.FailedFiles, stats.TotalFiles)
	}
	return nil
}

// collectParcelFiles expands directories into the parcel documents they
// hold, sorted by name. Explicit file arguments are kept as given so an
// unsupported extension is reported per file.
func collectParcelFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(arg, entry.Name())
			if _, err := parcel.FormatForPath(path); err == nil {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// sinkRetryConfig starts from the driver's retry profile and applies the
// configured retry count. It returns nil when no count is configured so the
// sink keeps its own defaults.
func sinkRetryConfig(driver string, maxRetries int) *resilience.RetryConfig {
	if maxRetries <= 0 {
		return nil
	}
	retry := resilience.DefaultRetryConfig()
	if sink.NormalizeDriver(driver) == sink.DriverOracle {
		retry = resilience.RemoteRetryConfig()
	}
	retry.MaxRetries = maxRetries
	return &retry
}

func saveReports(cmd *cobra.Command, a *app, reports []formatters.ParcelReport) error {
	ctx := cmd.Context()
	sc := a.cfg.Sink

	driver := sink.NormalizeDriver(sc.Driver)
	cfg := sink.Config{
		Driver:         driver,
		DSN:            sc.DSN,
		Host:           sc.Host,
		Port:           sc.Port,
		Service:        sc.Service,
		Username:       sc.Username,
		Password:       sc.Password,
		WalletLocation: sc.WalletLocation,
		Observer:       a.observer,
	}
	if cfg.Retry = sinkRetryConfig(driver, sc.MaxRetries); cfg.Retry != nil && a.settings.Verbose {
		cfg.Retry.OnRetry = func(attempt int, err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: retrying database operation (attempt %d): %v\n", attempt, err)
		}
	}

	store, err := sink.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	for _, report := range reports {
		if err := store.SaveParcel(ctx, report); err != nil {
			return err
		}
	}
	if a.settings.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored %d parcels (run %s)\n", len(reports), store.RunID())
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// reportFileName turns a parcel id into a file name that cannot escape the
// output directory.
func reportFileName(parcelID, ext string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(parcelID, "_"), "._")
	if name == "" {
		name = "parcel"
	}
	return name + ext
}

// reportFileNames hands out report file names that are unique within one
// run: parcel ids that sanitise alike ("A/1", "A_1") get a numeric suffix.
type reportFileNames map[string]bool

func (used reportFileNames) next(parcelID, ext string) string {
	name := reportFileName(parcelID, ext)
	base := strings.TrimSuffix(name, ext)
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	used[name] = true
	return name
}

func writeReports(a *app, outDir string, reports []formatters.ParcelReport) error {
	formatter, ok := formatters.Get(a.settings.Format)
	if !ok {
		return fmt.Errorf("unsupported format %q", a.settings.Format)
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	options := a.formatterOptions()
	options.NoColor = true
	names := reportFileNames{}
	for _, report := range reports {
		out, err := formatter.Format([]formatters.ParcelReport{report}, options)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, names.next(report.ParcelID, formatter.FileExtension()))
		if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
			return fmt.Errorf("error writing %s: %w", path, err)
		}
	}
	return nil
}
