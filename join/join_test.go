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
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBarrierAllSucceed(t *testing.T) {
	var calls int
	var got []string
	var gotErr error
	b := NewBarrier(3, func(res []string, err error) {
		calls++
		got = res
		gotErr = err
	})

	b.Succeed(2, "c")
	b.Succeed(0, "a")
	if b.Fired() {
		t.Fatal("fired too early")
	}
	b.Succeed(1, "b")

	if calls != 1 {
		t.Fatalf("continuation called %d times", calls)
	}
	if gotErr != nil {
		t.Fatal(gotErr)
	}
	if d := cmp.Diff([]string{"a", "b", "c"}, got); d != "" {
		t.Errorf("results (-want +got):\n%s", d)
	}
	select {
	case <-b.Done():
	default:
		t.Error("Done channel not closed")
	}
}

func TestBarrierFailFirst(t *testing.T) {
	errPage := errors.New("page 1 broken")

	var calls int
	var gotErr error
	b := NewBarrier(4, func(res []int, err error) {
		calls++
		gotErr = err
		if res != nil {
			t.Error("unexpected results after failure")
		}
	})

	b.Succeed(0, 10)
	b.Fail(1, errPage)
	b.Succeed(2, 30)
	b.Fail(3, errors.New("late failure"))

	if calls != 1 {
		t.Fatalf("continuation called %d times", calls)
	}
	if !errors.Is(gotErr, errPage) {
		t.Errorf("got error %v, want %v", gotErr, errPage)
	}
	if !b.Stopped() {
		t.Error("Stopped() = false after failure")
	}
	if late := b.Late(); late != 2 {
		t.Errorf("Late() = %d, want 2", late)
	}
	if n := b.Reported(); n != 4 {
		t.Errorf("Reported() = %d, want 4", n)
	}
}

func TestBarrierIgnoresBadSignals(t *testing.T) {
	var calls int
	b := NewBarrier(2, func([]int, error) { calls++ })

	b.Succeed(-1, 0)
	b.Succeed(2, 0)
	b.Succeed(0, 1)
	b.Succeed(0, 1)
	b.Fail(0, errors.New("duplicate"))
	if b.Fired() {
		t.Fatal("duplicate signal fired the barrier")
	}
	b.Succeed(1, 2)
	if calls != 1 {
		t.Errorf("continuation called %d times", calls)
	}
}

func TestBarrierZero(t *testing.T) {
	var calls int
	b := NewBarrier(0, func(res []int, err error) {
		calls++
		if len(res) != 0 || err != nil {
			t.Errorf("got %v, %v", res, err)
		}
	})
	if calls != 1 || !b.Fired() {
		t.Error("empty barrier did not fire")
	}
}

// TestBarrierConcurrent checks that the continuation runs exactly once when
// successes and a failure race each other.
func TestBarrierConcurrent(t *testing.T) {
	for round := 0; round < 50; round++ {
		const n = 32
		var calls atomic.Int32
		b := NewBarrier(n, func([]int, error) { calls.Add(1) })

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runtime.Gosched()
				if i == n/2 {
					b.Fail(i, errors.New("boom"))
				} else {
					b.Succeed(i, i)
				}
			}()
		}
		wg.Wait()

		if c := calls.Load(); c != 1 {
			t.Fatalf("round %d: continuation called %d times", round, c)
		}
		if r := b.Reported(); r != n {
			t.Fatalf("round %d: %d of %d signals accounted for", round, r, n)
		}
	}
}

func TestRunOrder(t *testing.T) {
	const n = 20
	var calls int
	var got []int
	opt := &Options[int]{
		Workers: 4,
		Done: func(res []int, err error) {
			calls++
			got = res
			if err != nil {
				t.Error(err)
			}
		},
	}
	out := Run(context.Background(), n, opt, func(_ context.Context, i int) (int, error) {
		// finish in reverse order
		time.Sleep(time.Duration(n-i) * 100 * time.Microsecond)
		return i * i, nil
	})

	if calls != 1 {
		t.Fatalf("Done called %d times", calls)
	}
	want := make([]int, n)
	for i := range want {
		want[i] = i * i
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("results (-want +got):\n%s", d)
	}
	for i, o := range out {
		if o.Index != i || o.Value != i*i || o.Err != nil {
			t.Errorf("outcome %d = %+v", i, o)
		}
	}
	if err := FirstError(out); err != nil {
		t.Error(err)
	}
}

func TestRunFailFast(t *testing.T) {
	errBad := errors.New("bad page")
	var started atomic.Int32
	var calls int
	var gotErr error

	opt := &Options[string]{
		Workers:  1,
		FailFast: true,
		Done: func(_ []string, err error) {
			calls++
			gotErr = err
		},
	}
	out := Run(context.Background(), 5, opt, func(_ context.Context, i int) (string, error) {
		started.Add(1)
		if i == 1 {
			return "", errBad
		}
		return "ok", nil
	})

	if calls != 1 || !errors.Is(gotErr, errBad) {
		t.Fatalf("Done called %d times with %v", calls, gotErr)
	}
	if s := started.Load(); s != 2 {
		t.Errorf("%d tasks started, want 2", s)
	}
	if len(out) != 5 {
		t.Fatalf("got %d outcomes", len(out))
	}
	for i := 2; i < 5; i++ {
		if !errors.Is(out[i].Err, ErrSkipped) {
			t.Errorf("outcome %d: %v", i, out[i].Err)
		}
	}
	if err := FirstError(out); !errors.Is(err, errBad) {
		t.Errorf("FirstError() = %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	out := Run(ctx, 3, &Options[int]{Done: func([]int, error) { calls++ }},
		func(context.Context, int) (int, error) {
			t.Error("task ran after cancellation")
			return 0, nil
		})
	if calls != 1 {
		t.Errorf("Done called %d times", calls)
	}
	for _, o := range out {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("outcome %d: %v", o.Index, o.Err)
		}
	}
}
