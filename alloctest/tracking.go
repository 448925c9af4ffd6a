// Package alloctest provides allocators for testing code that consumes a
// ringqueue.Allocator: one that tracks block ownership and one that injects
// allocation failures.
package alloctest

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/aradilov/ringqueue"
)

// Op is the kind of an allocator event.
type Op int

const (
	OpAllocate Op = iota
	OpRelease
)

func (o Op) String() string {
	switch o {
	case OpAllocate:
		return "allocate"
	case OpRelease:
		return "release"
	}
	return "unknown"
}

// Event is one successful call recorded by Tracking.
type Event struct {
	Op    Op
	Block ringqueue.Block
	Size  uintptr
}

// Tracking wraps an allocator and records which blocks are live.
// Releasing a block that is not live is counted as a double release and is
// not forwarded.
type Tracking struct {
	mu     sync.Mutex
	next   ringqueue.Allocator
	live   map[ringqueue.Block]uintptr
	events *queue.Queue

	allocations    int
	releases       int
	doubleReleases int
}

// NewTracking wraps next. A nil next uses a ringqueue.HeapAllocator.
func NewTracking(next ringqueue.Allocator) *Tracking {
	if next == nil {
		next = &ringqueue.HeapAllocator{}
	}
	return &Tracking{
		next:   next,
		live:   make(map[ringqueue.Block]uintptr),
		events: queue.New(),
	}
}

func (t *Tracking) Allocate(size uintptr) (ringqueue.Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := t.next.Allocate(size)
	if err != nil {
		return ringqueue.NoBlock, err
	}
	t.live[b] = size
	t.allocations++
	t.events.Add(Event{Op: OpAllocate, Block: b, Size: size})
	return b, nil
}

func (t *Tracking) Release(b ringqueue.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()

	size, ok := t.live[b]
	if !ok {
		t.doubleReleases++
		return
	}
	delete(t.live, b)
	t.next.Release(b)
	t.releases++
	t.events.Add(Event{Op: OpRelease, Block: b, Size: size})
}

// Outstanding returns the number of allocated blocks not yet released.
func (t *Tracking) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// IsLive reports whether b was allocated and not released yet.
func (t *Tracking) IsLive(b ringqueue.Block) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[b]
	return ok
}

func (t *Tracking) Allocations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocations
}

func (t *Tracking) Releases() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releases
}

func (t *Tracking) DoubleReleases() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doubleReleases
}

// Events returns the recorded events in call order.
func (t *Tracking) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Event, t.events.Length())
	for i := range out {
		out[i] = t.events.Get(i).(Event)
	}
	return out
}

// Released returns the released blocks in release order.
func (t *Tracking) Released() []ringqueue.Block {
	var out []ringqueue.Block
	for _, e := range t.Events() {
		if e.Op == OpRelease {
			out = append(out, e.Block)
		}
	}
	return out
}

// Reset forgets the recorded events. Live blocks stay tracked.
func (t *Tracking) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = queue.New()
}

var _ ringqueue.Allocator = (*Tracking)(nil)
