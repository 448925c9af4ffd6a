package ringqueue_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aradilov/ringqueue"
	"github.com/aradilov/ringqueue/alloctest"
)

// allocated returns the blocks handed out so far, in allocation order.
func allocated(tracking *alloctest.Tracking) []ringqueue.Block {
	var out []ringqueue.Block
	for _, e := range tracking.Events() {
		if e.Op == alloctest.OpAllocate {
			out = append(out, e.Block)
		}
	}
	return out
}

func TestResizeShrinkFull(t *testing.T) {
	r, tracking := newTracked[string](t, 5)
	writeAll(t, r, "a", "b", "c", "d", "e")
	blocks := allocated(tracking)

	require.NoError(t, r.Resize(3))
	assert.Equal(t, 3, r.Capacity())
	assert.Equal(t, 3, r.Count())
	assert.True(t, r.IsFull())
	assert.Equal(t, 3, tracking.Outstanding())

	// the slots that held the discarded a and b go back first
	assert.Equal(t, blocks[:2], tracking.Released())

	assert.Equal(t, []string{"c", "d", "e"}, drain(t, r))
}

func TestResizeShrinkWrapped(t *testing.T) {
	r, _ := newTracked[int](t, 5)
	writeAll(t, r, 1, 2, 3, 4, 5, 6, 7)

	require.NoError(t, r.Resize(3))
	assert.Equal(t, []int{5, 6, 7}, contents(r))

	writeAll(t, r, 8)
	assert.Equal(t, []int{6, 7, 8}, drain(t, r))
}

func TestResizeShrinkPartial(t *testing.T) {
	r, tracking := newTracked[int](t, 6)
	writeAll(t, r, 1, 2)
	blocks := allocated(tracking)

	require.NoError(t, r.Resize(3))
	assert.Equal(t, 2, r.Count())
	assert.False(t, r.IsFull())
	// nothing was discarded, so unused slots are released
	assert.Equal(t, blocks[3:], tracking.Released())

	writeAll(t, r, 3, 4)
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []int{2, 3, 4}, drain(t, r))
}

func TestResizeShrinkEmpty(t *testing.T) {
	r, tracking := newTracked[int](t, 8)
	writeAll(t, r, 1, 2, 3)
	drain(t, r)

	require.NoError(t, r.Resize(4))
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 4, tracking.Outstanding())

	writeAll(t, r, 1, 2, 3, 4, 5)
	assert.Equal(t, []int{2, 3, 4, 5}, drain(t, r))
}

func TestResizeGrowFull(t *testing.T) {
	r, tracking := newTracked[int](t, 3)
	writeAll(t, r, 1, 2, 3)

	require.NoError(t, r.Resize(5))
	assert.Equal(t, 5, r.Capacity())
	assert.Equal(t, 3, r.Count())
	assert.False(t, r.IsFull())
	assert.Equal(t, 5, tracking.Outstanding())
	assert.Equal(t, []int{1, 2, 3}, contents(r))

	// the new slots are used before anything is overwritten
	writeAll(t, r, 4, 5)
	assert.True(t, r.IsFull())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, drain(t, r))
}

func TestResizeGrowWrapped(t *testing.T) {
	r, _ := newTracked[int](t, 3)
	writeAll(t, r, 1, 2, 3, 4)

	require.NoError(t, r.Resize(6))
	writeAll(t, r, 5, 6, 7)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, contents(r))

	writeAll(t, r, 8)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, drain(t, r))
}

func TestResizeGrowPartial(t *testing.T) {
	r, _ := newTracked[int](t, 4)
	writeAll(t, r, 1, 2, 3, 4, 5)
	_, err := r.Read()
	require.NoError(t, err)

	require.NoError(t, r.Resize(7))
	assert.Equal(t, []int{3, 4, 5}, contents(r))
	writeAll(t, r, 6, 7, 8, 9, 10)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, drain(t, r))
}

func TestResizeInvalid(t *testing.T) {
	r, tracking := newTracked[int](t, 4)
	writeAll(t, r, 1, 2, 3)

	for _, c := range []int{-3, 0, 1, 2} {
		err := r.Resize(c)
		assert.True(t, errors.Is(err, ringqueue.ErrInvalidConfiguration), "capacity %d: %v", c, err)
	}
	assert.Equal(t, 4, r.Capacity())
	assert.Equal(t, []int{1, 2, 3}, contents(r))
	assert.Equal(t, 4, tracking.Allocations())
	assert.Zero(t, tracking.Releases())
}

func TestResizeSameCapacity(t *testing.T) {
	r, tracking := newTracked[int](t, 4)
	writeAll(t, r, 1, 2, 3, 4, 5)

	require.NoError(t, r.Resize(4))
	assert.Equal(t, []int{2, 3, 4, 5}, contents(r))
	assert.Len(t, tracking.Events(), 4)
}

func TestResizeGrowFailureRollsBack(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracking := alloctest.NewTracking(nil)
	faulty := alloctest.FailAfter(tracking, -1)

	r, err := ringqueue.New[int](3,
		ringqueue.WithAllocator(faulty),
		ringqueue.WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	writeAll(t, r, 1, 2, 3, 4)

	faulty.SetFailAfter(2)
	err = r.Resize(6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ringqueue.ErrAllocation), "%v", err)
	assert.True(t, errors.Is(err, alloctest.ErrInjected), "%v", err)

	assert.Equal(t, 3, r.Capacity())
	assert.True(t, r.IsFull())
	assert.Equal(t, []int{2, 3, 4}, contents(r))
	assert.Equal(t, 3, tracking.Outstanding())
	assert.Equal(t, 2, tracking.Releases())

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("slot allocation failed, rolled back")
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, int64(2), warnings.All()[0].ContextMap()["rolled_back"])
	assert.Zero(t, logs.FilterMessage("ring resized").Len())

	// the ring keeps working and can still grow once the allocator recovers
	faulty.SetFailAfter(-1)
	require.NoError(t, r.Resize(6))
	assert.Equal(t, 1, logs.FilterMessage("ring resized").Len())
	writeAll(t, r, 5, 6, 7)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, drain(t, r))

	r.Release()
	assert.Zero(t, tracking.Outstanding())
	assert.Zero(t, tracking.DoubleReleases())
}

func TestResizeAllocationPerDelta(t *testing.T) {
	r, tracking := newTracked[int](t, 5)

	require.NoError(t, r.Resize(9))
	assert.Equal(t, 9, tracking.Allocations())
	require.NoError(t, r.Resize(4))
	assert.Equal(t, 5, tracking.Releases())
	require.NoError(t, r.Resize(ringqueue.MinCapacity))
	assert.Equal(t, 6, tracking.Releases())
	assert.Equal(t, ringqueue.MinCapacity, tracking.Outstanding())
}

func contents[T any](r *ringqueue.Ring[T]) []T {
	var out []T
	for v := range r.Values() {
		out = append(out, v)
	}
	return out
}
