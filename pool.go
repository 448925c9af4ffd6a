package ringqueue

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// PoolAllocator hands out blocks from a fixed slab.
// Free blocks are kept in a lock-free list, so one pool may back rings
// owned by different goroutines.
type PoolAllocator struct {
	blockSize uintptr
	blocks    uint64
	free      *freeList
	inUse     []atomic.Bool

	allocations     atomic.Uint64
	releases        atomic.Uint64
	failedExhausted atomic.Uint64
	failedTooLarge  atomic.Uint64
	invalidReleases atomic.Uint64
}

type PoolStats struct {
	Allocations     uint64
	Releases        uint64
	FailedExhausted uint64
	FailedTooLarge  uint64
	InvalidReleases uint64
	InUse           uint64
}

// NewPoolAllocator creates a pool of blocks blocks of blockSize bytes each.
// blocks must be a power of two (1<<k).
func NewPoolAllocator(blocks uint64, blockSize uintptr) *PoolAllocator {
	if blockSize == 0 {
		panic("block size must be > 0")
	}

	p := &PoolAllocator{
		blockSize: blockSize,
		blocks:    blocks,
		free:      newFreeList(blocks),
		inUse:     make([]atomic.Bool, blocks),
	}
	for i := uint64(0); i < blocks; i++ {
		if !p.free.push(i) {
			panic("unreached")
		}
	}
	return p
}

// Allocate takes a free block. It fails with ErrBlockTooLarge when size
// exceeds the pool block size and with ErrPoolExhausted when every block is
// in use.
func (p *PoolAllocator) Allocate(size uintptr) (Block, error) {
	if size > p.blockSize {
		p.failedTooLarge.Add(1)
		return NoBlock, errors.Wrapf(ErrBlockTooLarge, "requested %d bytes, block size is %d", size, p.blockSize)
	}

	idx, ok := p.free.pop()
	if !ok {
		p.failedExhausted.Add(1)
		return NoBlock, errors.Wrapf(ErrPoolExhausted, "all %d blocks in use", p.blocks)
	}
	p.inUse[idx].Store(true)
	p.allocations.Add(1)
	return Block(idx + 1), nil
}

// Release puts b back on the free list.
// Blocks the pool does not know about, or that are already free, are counted
// in PoolStats.InvalidReleases and otherwise ignored.
func (p *PoolAllocator) Release(b Block) {
	if b == NoBlock || uint64(b) > p.blocks {
		p.invalidReleases.Add(1)
		return
	}
	idx := uint64(b) - 1
	if !p.inUse[idx].CompareAndSwap(true, false) {
		p.invalidReleases.Add(1)
		return
	}
	if !p.free.push(idx) {
		panic("unreached")
	}
	p.releases.Add(1)
}

// BlockSize returns the size of every block in the pool.
func (p *PoolAllocator) BlockSize() uintptr {
	return p.blockSize
}

// Stats retrieves the current statistics of the pool.
func (p *PoolAllocator) Stats() PoolStats {
	// releases first, so InUse never underflows
	releases := p.releases.Load()
	allocations := p.allocations.Load()
	return PoolStats{
		Allocations:     allocations,
		Releases:        releases,
		FailedExhausted: p.failedExhausted.Load(),
		FailedTooLarge:  p.failedTooLarge.Load(),
		InvalidReleases: p.invalidReleases.Load(),
		InUse:           allocations - releases,
	}
}

var _ Allocator = (*PoolAllocator)(nil)
