package ringqueue

import "github.com/pkg/errors"

var (
	// ErrInvalidConfiguration is returned when a capacity is below MinCapacity
	// or a required option is missing.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrAllocation is returned when the allocator could not provide a block.
	// The failing operation has already released everything it acquired.
	ErrAllocation = errors.New("allocation failed")
	// ErrUnderflow is returned by Read on an empty ring.
	ErrUnderflow = errors.New("ring is empty")
	// ErrReleased is returned when a ring no longer owns any slots,
	// either after Release or after its slots were moved to another ring.
	ErrReleased = errors.New("ring is released")

	ErrPoolExhausted = errors.Wrap(ErrAllocation, "pool exhausted")
	ErrBlockTooLarge = errors.Wrap(ErrAllocation, "block size exceeds pool block size")
)
