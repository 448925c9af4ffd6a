// Package ringqueue implements a bounded, overwrite-on-full ring queue whose
// slots are obtained from a pluggable Allocator.
//
// A Ring is single-threaded. Writing to a full ring drops the oldest element.
// The slot storage can be resized at runtime; shrinking keeps the newest
// elements.
package ringqueue

import "unsafe"

// slot is one cell of the ring arena.
type slot[T any] struct {
	val   T     // value written at this position
	block Block // allocator block backing this slot
}

// SlotSize returns the number of bytes a Ring[T] requests per slot.
func SlotSize[T any]() uintptr {
	var s slot[T]
	return unsafe.Sizeof(s)
}

// noCopy may be embedded into structs which must not be copied
// after the first use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
