package pipeline

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/transform"
)

// entryResult carries one transformed entry, or its failure, back to the
// collector.
type entryResult[T datum.Sample] struct {
	index int
	out   datum.Datum[T]
	err   error
}

// applyEntries applies t to every entry of c. Results keep their entry
// positions. It returns the failures of the step sorted by entry, or a
// cause when ctx ends before every entry ran.
func applyEntries[T datum.Sample](ctx context.Context, t transform.Transformation[T], c datum.Collection[T], workers int, policy FailurePolicy) ([]datum.Datum[T], []*errors.TransformationError, error) {
	entries := c.Entries()
	if workers <= 1 || len(entries) <= 1 {
		return applySequential(ctx, t, entries, policy)
	}
	return applyParallel(ctx, t, entries, min(workers, len(entries)), policy)
}

func applySequential[T datum.Sample](ctx context.Context, t transform.Transformation[T], entries []datum.Datum[T], policy FailurePolicy) ([]datum.Datum[T], []*errors.TransformationError, error) {
	out := make([]datum.Datum[T], len(entries))
	var failures []*errors.TransformationError
	for i, d := range entries {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}
		nd, err := transform.ApplyAt(t, d, i)
		if err != nil {
			failures = append(failures, asFailure(t, i, err))
			if policy == FailFast {
				break
			}
			continue
		}
		out[i] = nd
	}
	return out, failures, nil
}

// applyParallel fans entry indexes out to n workers. Under FailFast the
// first failure stops the producer and workers skip entries above the lowest
// failure seen so far. Entries below it always run, so the failure kept is
// the lowest failing entry, as in a sequential run.
func applyParallel[T datum.Sample](ctx context.Context, t transform.Transformation[T], entries []datum.Datum[T], n int, policy FailurePolicy) ([]datum.Datum[T], []*errors.TransformationError, error) {
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	in := make(chan int, n)
	results := make(chan entryResult[T], n)
	floor := newFailureFloor()
	var wg sync.WaitGroup

	// Producer: feed entry indexes in order until done, failed or canceled
	go func() {
		defer close(in)
		for i := range entries {
			select {
			case in <- i:
			case <-feedCtx.Done():
				return
			}
		}
	}()

	// Workers: apply the step and report every result
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range in {
				if ctx.Err() != nil {
					return
				}
				if policy == FailFast && floor.above(i) {
					continue
				}
				nd, err := transform.ApplyAt(t, entries[i], i)
				if err != nil && policy == FailFast {
					floor.record(i)
				}
				results <- entryResult[T]{index: i, out: nd, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]datum.Datum[T], len(entries))
	done := 0
	var failures []*errors.TransformationError
	for r := range results {
		if r.err != nil {
			failures = append(failures, asFailure(t, r.index, r.err))
			if policy == FailFast {
				stopFeed()
			}
			continue
		}
		out[r.index] = r.out
		done++
	}

	slices.SortFunc(failures, func(a, b *errors.TransformationError) int { return a.Entry - b.Entry })
	if policy == FailFast && len(failures) > 1 {
		failures = failures[:1]
	}
	if len(failures) == 0 && done < len(entries) {
		return nil, nil, ctx.Err()
	}
	return out, failures, nil
}

// failureFloor tracks the lowest failing entry index seen by any worker.
type failureFloor struct {
	v atomic.Int64
}

func newFailureFloor() *failureFloor {
	f := &failureFloor{}
	f.v.Store(math.MaxInt64)
	return f
}

// record lowers the floor to i if i is below it.
func (f *failureFloor) record(i int) {
	for {
		cur := f.v.Load()
		if int64(i) >= cur || f.v.CompareAndSwap(cur, int64(i)) {
			return
		}
	}
}

// above reports whether entry i lies past a recorded failure.
func (f *failureFloor) above(i int) bool {
	return int64(i) > f.v.Load()
}

func asFailure[T datum.Sample](t transform.Transformation[T], entry int, err error) *errors.TransformationError {
	if te, ok := errors.AsTransformationError(err); ok {
		return te
	}
	return errors.NewTransformationError(t.Name(), err).AtEntry(entry)
}
