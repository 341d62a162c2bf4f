/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: batch.go
Description: Batch guessing across many files. Each file gets its own sequential queue
run; files are spread over a bounded pool of workers.
*/

package core

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchOptions configures GuessBatch
type BatchOptions struct {
	Workers  int                                      // Concurrent runs, defaults to GOMAXPROCS
	FailFast bool                                     // Stop at the first failed file
	OnDone   func(file string, r *Result, err error) // Called as each file finishes, from worker goroutines
}

// BatchItem is the outcome for one file of a batch
type BatchItem struct {
	File   string  `json:"file"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// GuessBatch runs the queue on every file. Items are returned in input order.
// Per-file failures are recorded on their item; the returned error is only set
// when FailFast stops the batch or ctx is cancelled.
func (q *GuesserQueue) GuessBatch(ctx context.Context, files []string, opts BatchOptions) ([]BatchItem, *BatchStats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	items := make([]BatchItem, len(files))
	stats := &BatchStats{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i] = BatchItem{File: file, Err: err}
				return err
			}

			var result *Result
			path, err := ResolveRegular(file)
			if err == nil {
				result, err = q.Process(ctx, path)
				if result != nil {
					result.File = file
				}
			}
			items[i] = BatchItem{File: file, Result: result, Err: err}
			stats.record(result, err)

			if opts.OnDone != nil {
				opts.OnDone(file, result, err)
			}
			if err != nil {
				q.logger.WithField("file", file).WithError(err).Warn("Failed to guess encoding")
				if opts.FailFast {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	stats.Duration = time.Since(start)
	return items, stats, err
}
