// seehuhn.de/go/pdfink - draw ink strokes on PDF pages and images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package join

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrSkipped is the error recorded for tasks which were not started
// because an earlier task failed and [Options.FailFast] was set.
var ErrSkipped = errors.New("skipped after earlier failure")

// Task computes the result for index i.
type Task[T any] func(ctx context.Context, i int) (T, error)

// Options control the behaviour of [Run].
type Options[T any] struct {
	// Workers is the maximal number of tasks running at the same time.
	// If this is zero, runtime.GOMAXPROCS(0) is used.
	Workers int

	// FailFast makes tasks which have not started yet into no-ops once
	// some task has failed.
	FailFast bool

	// Done, if set, is called exactly once with either the full ordered
	// result list or the first error.
	Done func([]T, error)
}

// Outcome is the result of one task.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// Run executes task for all indices 0, ..., n-1 and returns one outcome per
// index, in index order.
//
// Every index is accounted for: tasks which are skipped because of an
// earlier failure get [ErrSkipped], tasks which are skipped because ctx
// was cancelled get ctx.Err().
func Run[T any](ctx context.Context, n int, opt *Options[T], task Task[T]) []Outcome[T] {
	if opt == nil {
		opt = &Options[T]{}
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	out := make([]Outcome[T], n)
	b := NewBarrier(n, opt.Done)
	if n <= 0 {
		return out
	}

	workCh := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				out[i] = runOne(ctx, i, task, b, opt.FailFast)
			}
		}()
	}
	for i := range n {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	return out
}

func runOne[T any](ctx context.Context, i int, task Task[T], b *Barrier[T], failFast bool) Outcome[T] {
	res := Outcome[T]{Index: i}
	switch {
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	case failFast && b.Stopped():
		res.Err = ErrSkipped
	default:
		res.Value, res.Err = task(ctx, i)
	}

	if res.Err != nil {
		b.Fail(i, res.Err)
	} else {
		b.Succeed(i, res.Value)
	}
	return res
}

// FirstError returns the error of the lowest-indexed failed outcome,
// or nil if all tasks succeeded.
func FirstError[T any](outcomes []Outcome[T]) error {
	for _, o := range outcomes {
		if o.Err != nil && !errors.Is(o.Err, ErrSkipped) {
			return o.Err
		}
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
