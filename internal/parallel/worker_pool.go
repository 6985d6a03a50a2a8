// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parcel-owners/internal/observability"
	"parcel-owners/internal/parcel"
	"parcel-owners/internal/timeline"
)

// WorkerPool resolves parcel documents on a fixed number of goroutines.
// Every job is independent; workers share only the read-only builder.
type WorkerPool struct {
	workers  int
	jobs     chan *Job
	results  chan *Result
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	observer *observability.StandardObserver
	builder  *timeline.Builder
}

// Job represents one parcel document to process
type Job struct {
	Index int
	Path  string
	JobID string
}

// Result represents processing results
type Result struct {
	JobID    string
	Index    int
	Path     string
	ParcelID string
	Parcel   *parcel.Parcel
	Output   timeline.Result
	Err      error
	Duration time.Duration
}

// NewWorkerPool creates a worker pool bound to ctx. A non-positive worker
// count means one worker.
func NewWorkerPool(ctx context.Context, workers int, builder *timeline.Builder, observer *observability.StandardObserver) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workers:  workers,
		jobs:     make(chan *Job, workers*2),
		results:  make(chan *Result, workers*2),
		ctx:      ctx,
		cancel:   cancel,
		observer: observer,
		builder:  builder,
	}
}

// Start initializes worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Stop cancels outstanding work.
func (wp *WorkerPool) Stop() {
	wp.cancel()
}

// Submit adds a job to the queue. It reports false when the pool was
// cancelled before the job could be queued.
func (wp *WorkerPool) Submit(job *Job) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-wp.ctx.Done():
		return false
	}
}

// Close signals that no more jobs will be submitted.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
}

// Results returns the results channel. It is closed once every worker has
// exited.
func (wp *WorkerPool) Results() <-chan *Result {
	return wp.results
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		result := wp.processJob(job, id)

		select {
		case wp.results <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob loads one parcel document and builds its timeline.
func (wp *WorkerPool) processJob(job *Job, workerID int) *Result {
	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.Path)

	result := &Result{JobID: job.JobID, Index: job.Index, Path: job.Path}
	if err := wp.ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	p, err := parcel.LoadFile(job.Path)
	if err != nil {
		result.Err = fmt.Errorf("failed to load parcel: %w", err)
	} else {
		result.Parcel = p
		result.ParcelID = p.ParcelID
		result.Output = wp.builder.Build(p.Input())
	}
	result.Duration = time.Since(start)

	finishTiming(result.Err == nil, map[string]interface{}{
		"worker_id":   workerID,
		"parcel_id":   result.ParcelID,
		"invalid":     len(result.Output.InvalidOwners),
		"duration_ms": result.Duration.Milliseconds(),
	})
	return result
}
