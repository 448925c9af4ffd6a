package ringqueue

import "sync/atomic"

// Block identifies a region handed out by an Allocator.
// The zero Block is never returned by a successful Allocate.
type Block uint64

// NoBlock is the invalid Block.
const NoBlock Block = 0

// Allocator supplies the storage that backs ring slots.
//
// Allocate must return a block of at least size bytes or an error; it must
// not panic. Release must accept exactly the blocks returned by Allocate,
// each one once.
type Allocator interface {
	Allocate(size uintptr) (Block, error)
	Release(b Block)
}

// HeapAllocator leaves memory to the Go runtime and only hands out unique
// block identifiers. Release is a no-op.
type HeapAllocator struct {
	next atomic.Uint64
}

// Allocate never fails.
func (h *HeapAllocator) Allocate(uintptr) (Block, error) {
	return Block(h.next.Add(1)), nil
}

func (h *HeapAllocator) Release(Block) {}

var _ Allocator = (*HeapAllocator)(nil)
