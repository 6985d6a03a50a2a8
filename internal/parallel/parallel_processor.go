// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"parcel-owners/internal/observability"
	"parcel-owners/internal/timeline"
)

// ParallelProcessor fans parcel documents out to a worker pool and gathers
// the results back in submission order.
type ParallelProcessor struct {
	workers  int
	builder  *timeline.Builder
	observer *observability.StandardObserver
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    int           `json:"failed_files"`
	InvalidOwners  int           `json:"invalid_owners"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"avg_file_time_ms"`
}

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 workers to avoid resource exhaustion
	}
	return workers
}

// NewParallelProcessor creates a new parallel processor. A non-positive
// worker count selects DefaultWorkers.
func NewParallelProcessor(workers int, builder *timeline.Builder, observer *observability.StandardObserver) *ParallelProcessor {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &ParallelProcessor{workers: workers, builder: builder, observer: observer}
}

// ProgressCallback is called when a file is completed
type ProgressCallback func(completed, total int, currentFile string)

// ProcessFiles processes multiple parcel documents in parallel
func (pp *ParallelProcessor) ProcessFiles(ctx context.Context, paths []string) ([]*Result, *ProcessingStats) {
	return pp.ProcessFilesWithProgress(ctx, paths, nil)
}

// ProcessFilesWithProgress processes multiple parcel documents in parallel
// with a progress callback. The returned slice has one entry per path, in
// the order given; jobs that never ran carry the context error.
func (pp *ParallelProcessor) ProcessFilesWithProgress(ctx context.Context, paths []string, progressCallback ProgressCallback) ([]*Result, *ProcessingStats) {
	start := time.Now()
	finishTiming := pp.observer.StartTiming("parallel_processor", "process_files", "batch")

	pool := NewWorkerPool(ctx, pp.workers, pp.builder, pp.observer)
	pool.Start()
	defer pool.Stop()

	// Submit jobs in a separate goroutine to prevent deadlock
	go func() {
		defer pool.Close()
		for i, path := range paths {
			if !pool.Submit(&Job{Index: i, Path: path, JobID: fmt.Sprintf("job_%d", i)}) {
				return
			}
		}
	}()

	results := make([]*Result, len(paths))
	stats := &ProcessingStats{TotalFiles: len(paths), WorkerCount: pp.workers}
	var totalDuration time.Duration
	completed := 0

	for result := range pool.Results() {
		results[result.Index] = result
		completed++
		totalDuration += result.Duration

		if result.Err != nil {
			stats.FailedFiles++
			pp.observer.LogOperation(observability.StandardObservabilityData{
				Component: "parallel_processor",
				Operation: "file_processing",
				Subject:   result.Path,
				Success:   false,
				Error:     result.Err.Error(),
			})
		} else {
			stats.ProcessedFiles++
			stats.InvalidOwners += len(result.Output.InvalidOwners)
		}

		if progressCallback != nil {
			progressCallback(completed, len(paths), result.Path)
		}
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &Result{Index: i, Path: paths[i], JobID: fmt.Sprintf("job_%d", i), Err: err}
			stats.FailedFiles++
		}
	}

	stats.TotalDuration = time.Since(start)
	stats.AvgFileTime = totalDuration / time.Duration(max(stats.ProcessedFiles, 1))

	if pp.observer != nil && pp.observer.DebugObserver != nil {
		debug := pp.observer.DebugObserver
		debug.LogMetric("parallel_processor", "processed_files", stats.ProcessedFiles)
		debug.LogMetric("parallel_processor", "failed_files", stats.FailedFiles)
		debug.LogMetric("parallel_processor", "invalid_owners", stats.InvalidOwners)
		debug.LogMetric("parallel_processor", "avg_file_time", stats.AvgFileTime.Round(time.Microsecond))
	}

	finishTiming(stats.FailedFiles == 0, map[string]interface{}{
		"total_files":     stats.TotalFiles,
		"processed_files": stats.ProcessedFiles,
		"failed_files":    stats.FailedFiles,
		"worker_count":    pp.workers,
		"duration_ms":     stats.TotalDuration.Milliseconds(),
	})

	return results, stats
}
