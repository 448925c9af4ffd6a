package alloctest

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/valyala/fastrand"

	"github.com/aradilov/ringqueue"
)

// ErrInjected is returned by Faulty when it simulates a failure.
var ErrInjected = errors.New("injected allocation failure")

// Faulty wraps an allocator and makes some Allocate calls fail.
type Faulty struct {
	mu        sync.Mutex
	next      ringqueue.Allocator
	failAfter int    // successful allocations allowed, <0 means unlimited
	failRate  uint32 // percent of calls failing at random

	succeeded int
	failures  int
}

// FailAfter lets n allocations through and fails every following one.
// A nil next uses a ringqueue.HeapAllocator.
func FailAfter(next ringqueue.Allocator, n int) *Faulty {
	return &Faulty{next: orHeap(next), failAfter: n}
}

// FailRate fails about percent out of 100 allocations at random.
func FailRate(next ringqueue.Allocator, percent uint32) *Faulty {
	return &Faulty{next: orHeap(next), failAfter: -1, failRate: min(percent, 100)}
}

func orHeap(a ringqueue.Allocator) ringqueue.Allocator {
	if a == nil {
		return &ringqueue.HeapAllocator{}
	}
	return a
}

func (f *Faulty) Allocate(size uintptr) (ringqueue.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAfter >= 0 && f.succeeded >= f.failAfter {
		f.failures++
		return ringqueue.NoBlock, ErrInjected
	}
	if f.failRate > 0 && fastrand.Uint32n(100) < f.failRate {
		f.failures++
		return ringqueue.NoBlock, ErrInjected
	}

	b, err := f.next.Allocate(size)
	if err != nil {
		return ringqueue.NoBlock, err
	}
	f.succeeded++
	return b, nil
}

func (f *Faulty) Release(b ringqueue.Block) {
	f.next.Release(b)
}

// SetFailAfter allows n more successful allocations from now on.
// A negative n disables the limit.
func (f *Faulty) SetFailAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 0 {
		f.failAfter = -1
		return
	}
	f.failAfter = f.succeeded + n
}

// Failures returns the number of injected failures so far.
func (f *Faulty) Failures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

var _ ringqueue.Allocator = (*Faulty)(nil)
