package ringqueue

import (
	"runtime"
	"sync/atomic"
)

// Original algorithm by Dmitry Vyukov
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue

// cell is one position of the free list.
type cell struct {
	seq atomic.Uint64 // sequence number (controls visibility and cell ownership)
	idx uint64        // free block index stored in this cell
}

// freeList is a bounded lock-free MPMC queue of block indices.
// Many goroutines may push and pop concurrently.
type freeList struct {
	// Optional padding to avoid false sharing between hot fields.
	_     [64]byte
	mask  uint64
	cells []cell
	_     [64]byte
	tail  atomic.Uint64 // next push position
	_     [64]byte
	head  atomic.Uint64 // next pop position
	_     [64]byte
}

const goschedEvery = 64 // reduce runtime.Gosched() frequency in hot loops

// newFreeList creates a free list holding up to size indices.
// size must be a power of two (1<<k).
func newFreeList(size uint64) *freeList {
	if size == 0 || (size&(size-1)) != 0 {
		panic("free list size must be power of 2 and > 0")
	}

	cells := make([]cell, size)
	for i := uint64(0); i < size; i++ {
		// initial sequence for each cell matches its position
		cells[i].seq.Store(i)
	}
	return &freeList{
		mask:  size - 1,
		cells: cells,
	}
}

// push appends idx. Returns false if the list is full.
func (l *freeList) push(idx uint64) bool {
	var spins uint32
	for {
		pos := l.tail.Load()
		c := &l.cells[pos&l.mask]
		diff := int64(c.seq.Load()) - int64(pos)

		switch {
		case diff == 0:
			if l.tail.CompareAndSwap(pos, pos+1) {
				c.idx = idx
				// publish: seq = pos+1
				c.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			// cell not yet consumed => full
			return false
		}
		// lost the race or cell belongs to a previous lap
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// pop removes the oldest index. Returns false if the list is empty.
func (l *freeList) pop() (uint64, bool) {
	var spins uint32
	for {
		pos := l.head.Load()
		c := &l.cells[pos&l.mask]
		diff := int64(c.seq.Load()) - int64(pos+1)

		switch {
		case diff == 0:
			if l.head.CompareAndSwap(pos, pos+1) {
				idx := c.idx
				// free the cell for the next lap at pos+size
				c.seq.Store(pos + l.mask + 1)
				return idx, true
			}
		case diff < 0:
			return 0, false
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}
