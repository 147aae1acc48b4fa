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

// Package join collects the results of independent per-page tasks.
//
// A [Barrier] counts completion signals and calls a continuation exactly
// once.  [Run] executes tasks on a bounded pool of goroutines and feeds
// a Barrier.
package join

import "sync"

// A Barrier waits for n indexed completion signals.
//
// The continuation passed to [NewBarrier] is called exactly once: either
// after all n tasks have reported success, with the results in index
// order, or as soon as the first task reports a failure.  Signals which
// arrive after the continuation has been called are counted and then
// discarded.  Signals with an index outside [0, n), and repeated signals
// for the same index, are ignored.
//
// A Barrier is safe for concurrent use.
type Barrier[T any] struct {
	done func([]T, error)

	mu       sync.Mutex
	n        int
	results  []T
	reported []bool
	count    int
	seen     int
	fired    bool
	failed   bool
	late     int
	firedCh  chan struct{}
}

// NewBarrier returns a barrier waiting for n signals.
// If n is zero, the continuation is called immediately with an empty
// result list.  done may be nil.
func NewBarrier[T any](n int, done func([]T, error)) *Barrier[T] {
	if n < 0 {
		n = 0
	}
	b := &Barrier[T]{
		done:     done,
		n:        n,
		results:  make([]T, n),
		reported: make([]bool, n),
		firedCh:  make(chan struct{}),
	}
	if n == 0 {
		b.fired = true
		if done != nil {
			done(b.results, nil)
		}
		close(b.firedCh)
	}
	return b
}

// Succeed records a successful result for task i.
func (b *Barrier[T]) Succeed(i int, v T) {
	b.mu.Lock()
	if !b.accept(i) {
		b.mu.Unlock()
		return
	}
	b.results[i] = v
	b.count++
	if b.count < b.n {
		b.mu.Unlock()
		return
	}
	b.fired = true
	results := b.results
	b.mu.Unlock()

	if b.done != nil {
		b.done(results, nil)
	}
	close(b.firedCh)
}

// Fail records a failure for task i.
// The first failure fires the barrier.
func (b *Barrier[T]) Fail(i int, err error) {
	b.mu.Lock()
	if !b.accept(i) {
		b.mu.Unlock()
		return
	}
	b.count++
	b.fired = true
	b.failed = true
	b.mu.Unlock()

	if b.done != nil {
		b.done(nil, err)
	}
	close(b.firedCh)
}

// accept marks index i as reported.  It returns false if the signal must
// be dropped.  The caller must hold b.mu.
func (b *Barrier[T]) accept(i int) bool {
	if i < 0 || i >= b.n || b.reported[i] {
		return false
	}
	b.reported[i] = true
	b.seen++
	if b.fired {
		b.late++
		return false
	}
	return true
}

// Fired reports whether the continuation has been called.
func (b *Barrier[T]) Fired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}

// Stopped reports whether the barrier fired because of a failure.
// Tasks which have not started yet can use this to skip their work.
func (b *Barrier[T]) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

// Late returns the number of signals which were discarded because they
// arrived after the barrier had fired.
func (b *Barrier[T]) Late() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.late
}

// Reported returns the number of distinct tasks which have signalled,
// including late signals.
func (b *Barrier[T]) Reported() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

// Done returns a channel which is closed once the continuation has been
// called.
func (b *Barrier[T]) Done() <-chan struct{} {
	return b.firedCh
}
