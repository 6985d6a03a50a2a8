// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DebugObserver prints a human-readable trace of resolution steps next to
// the JSON operation lines of its StandardObserver.
type DebugObserver struct {
	*StandardObserver
	indent int
}

// NewDebugObserver creates a debug observer writing to writer.
// The embedded StandardObserver points back at it.
func NewDebugObserver(writer io.Writer) *DebugObserver {
	d := &DebugObserver{
		StandardObserver: NewStandardObserver(ObservabilityDebug, writer),
	}
	d.StandardObserver.DebugObserver = d
	return d
}

// printf writes one trace line at the current depth. Callers hold d.mu.
func (d *DebugObserver) printf(marker, format string, args ...interface{}) {
	fmt.Fprintf(d.writer, "%s%s %s\n", strings.Repeat("  ", d.indent), marker, fmt.Sprintf(format, args...))
}

// StartStep opens a nested step; the returned func closes it.
func (d *DebugObserver) StartStep(component, step, subject string) func(success bool, details string) {
	start := time.Now()

	d.mu.Lock()
	d.printf("🔄", "%s: %s (%s)", component, step, subject)
	d.indent++
	d.mu.Unlock()

	return func(success bool, details string) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.indent > 0 {
			d.indent--
		}
		ms := time.Since(start).Milliseconds()
		if success {
			d.printf("✅", "%s: %s completed (%dms) %s", component, step, ms, details)
		} else {
			d.printf("❌", "%s: %s failed (%dms) %s", component, step, ms, details)
		}
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printf("  →", "%s: %s", component, detail)
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printf("  📊", "%s: %s = %v", component, metric, value)
}

// LogCell records how one raw owner cell was resolved.
func (d *DebugObserver) LogCell(raw string, resolved, invalid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printf("  ▸", "cell %q: %d owners, %d invalid", raw, resolved, invalid)
}

// LogBucket records the size of one timeline bucket.
func (d *DebugObserver) LogBucket(parcelID, key string, owners int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if parcelID == "" {
		d.printf("  ▸", "bucket %s: %d owners", key, owners)
		return
	}
	d.printf("  ▸", "%s bucket %s: %d owners", parcelID, key, owners)
}
