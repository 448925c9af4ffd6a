package ringqueue

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Ring is a bounded FIFO that overwrites its oldest element when full.
//
// The slots live in an arena indexed by head (the read cursor); the write
// cursor is always length slots ahead of it. A Ring must not be copied,
// use Move or MoveFrom to hand its slots to another Ring.
// Ring is not safe for concurrent use.
type Ring[T any] struct {
	_ noCopy

	slots  []slot[T]
	head   int // index of the oldest element
	length int // number of unread elements

	alloc  Allocator
	logger *zap.Logger
}

// New creates a ring with capacity slots, all of them allocated up front.
// Capacity must be at least MinCapacity. If an allocation fails, every block
// allocated so far is released and the error wraps ErrAllocation.
func New[T any](capacity int, opts ...Option) (*Ring[T], error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	r := &Ring[T]{
		alloc:  cfg.Allocator,
		logger: cfg.Logger,
	}
	blocks, err := r.allocate(capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "construct ring of capacity %d", capacity)
	}

	r.slots = make([]slot[T], capacity)
	for i, b := range blocks {
		r.slots[i].block = b
	}
	return r, nil
}

// allocate obtains n blocks from the allocator, or none at all.
func (r *Ring[T]) allocate(n int) ([]Block, error) {
	size := SlotSize[T]()
	blocks := make([]Block, 0, n)
	for i := 0; i < n; i++ {
		b, err := r.alloc.Allocate(size)
		if err == nil && b == NoBlock {
			err = errors.New("allocator returned no block")
		}
		if err != nil {
			for _, got := range blocks {
				r.alloc.Release(got)
			}
			r.logger.Warn("slot allocation failed, rolled back",
				zap.Int("requested", n),
				zap.Int("rolled_back", len(blocks)),
				zap.Error(err),
			)
			if !errors.Is(err, ErrAllocation) {
				err = fmt.Errorf("%w: %w", ErrAllocation, err)
			}
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (r *Ring[T]) writeIndex() int {
	return (r.head + r.length) % len(r.slots)
}

// Write stores v at the write cursor. Writing to a full ring discards the
// oldest element. It only fails with ErrReleased.
func (r *Ring[T]) Write(v T) error {
	c := len(r.slots)
	if c == 0 {
		return ErrReleased
	}

	r.slots[r.writeIndex()].val = v
	if r.length == c {
		r.head = (r.head + 1) % c
	} else {
		r.length++
	}
	return nil
}

// Read removes and returns the oldest element.
// It returns ErrUnderflow when the ring is empty.
func (r *Ring[T]) Read() (T, error) {
	var zero T
	if len(r.slots) == 0 {
		return zero, ErrReleased
	}
	if r.length == 0 {
		return zero, ErrUnderflow
	}

	s := &r.slots[r.head]
	v := s.val
	s.val = zero
	r.head = (r.head + 1) % len(r.slots)
	r.length--
	return v, nil
}

// IsFull reports whether the next Write overwrites the oldest element.
func (r *Ring[T]) IsFull() bool {
	return len(r.slots) > 0 && r.length == len(r.slots)
}

func (r *Ring[T]) IsEmpty() bool {
	return r.length == 0
}

// Count returns the number of unread elements.
func (r *Ring[T]) Count() int {
	return r.length
}

// Size is an alias of Count.
func (r *Ring[T]) Size() int {
	return r.length
}

// Capacity returns the number of slots currently owned by the ring.
func (r *Ring[T]) Capacity() int {
	return len(r.slots)
}

// Clear drops all unread elements. Slots stay allocated.
func (r *Ring[T]) Clear() {
	if len(r.slots) == 0 {
		return
	}
	var zero T
	for i := 0; i < r.length; i++ {
		r.slots[(r.head+i)%len(r.slots)].val = zero
	}
	r.head = r.writeIndex()
	r.length = 0
}

// Values iterates over the unread elements from oldest to newest
// without consuming them.
func (r *Ring[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < r.length; i++ {
			if !yield(r.slots[(r.head+i)%len(r.slots)].val) {
				return
			}
		}
	}
}

// Resize changes the number of slots.
//
// Shrinking keeps the newest min(Count, newCapacity) elements and releases
// the slots of the discarded ones first. Growing inserts the new slots right
// before the write cursor, so they are filled before the ring wraps. A failed
// grow leaves the ring untouched.
func (r *Ring[T]) Resize(newCapacity int) error {
	c := len(r.slots)
	if c == 0 {
		return ErrReleased
	}
	if err := validateCapacity(newCapacity); err != nil {
		return err
	}

	switch {
	case newCapacity == c:
		return nil
	case newCapacity < c:
		r.shrink(newCapacity)
	default:
		if err := r.grow(newCapacity); err != nil {
			return errors.Wrapf(err, "grow ring from %d to %d", c, newCapacity)
		}
	}

	r.logger.Debug("ring resized",
		zap.Int("from", c),
		zap.Int("to", newCapacity),
		zap.Int("count", r.length),
	)
	return nil
}

// ordered returns the arena rotated so that the read cursor is at index 0.
func (r *Ring[T]) ordered(extra int) []slot[T] {
	out := make([]slot[T], 0, len(r.slots)+extra)
	out = append(out, r.slots[r.head:]...)
	return append(out, r.slots[:r.head]...)
}

func (r *Ring[T]) shrink(n int) {
	s := r.ordered(0)
	stale := max(0, r.length-n)
	unused := len(s) - n - stale

	for _, dropped := range s[:stale] {
		r.alloc.Release(dropped.block)
	}
	for _, dropped := range s[len(s)-unused:] {
		r.alloc.Release(dropped.block)
	}

	r.slots = s[stale : len(s)-unused : len(s)-unused]
	r.head = 0
	r.length = min(r.length, n)
}

func (r *Ring[T]) grow(n int) error {
	blocks, err := r.allocate(n - len(r.slots))
	if err != nil {
		return err
	}

	s := r.ordered(len(blocks))
	grown := make([]slot[T], 0, n)
	grown = append(grown, s[:r.length]...)
	for _, b := range blocks {
		grown = append(grown, slot[T]{block: b})
	}
	grown = append(grown, s[r.length:]...)

	r.slots = grown
	r.head = 0
	return nil
}

// Release returns every slot to the allocator. The ring is unusable
// afterwards; calling Release again does nothing.
func (r *Ring[T]) Release() {
	for i := range r.slots {
		r.alloc.Release(r.slots[i].block)
	}
	r.slots = nil
	r.head = 0
	r.length = 0
}

// Move transfers the slots of r to a new ring and leaves r empty with no
// slots, so releasing r afterwards is a no-op.
func (r *Ring[T]) Move() *Ring[T] {
	dst := &Ring[T]{}
	dst.take(r)
	return dst
}

// MoveFrom releases the slots owned by r and takes over those of src.
// src is left empty with no slots.
func (r *Ring[T]) MoveFrom(src *Ring[T]) {
	if src == nil || src == r {
		return
	}
	r.Release()
	r.take(src)
}

func (r *Ring[T]) take(src *Ring[T]) {
	r.slots, r.head, r.length = src.slots, src.head, src.length
	r.alloc, r.logger = src.alloc, src.logger
	src.slots, src.head, src.length = nil, 0, 0
}
