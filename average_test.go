package ringqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aradilov/ringqueue"
)

func TestAverageEmpty(t *testing.T) {
	r, _ := newTracked[int](t, 5)
	assert.Equal(t, 0.0, ringqueue.Average(r))

	writeAll(t, r, 4)
	_, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0.0, ringqueue.Average(r))
}

func TestAverageAfterOverwrite(t *testing.T) {
	r, _ := newTracked[int](t, 5)
	writeAll(t, r, 1, 2, 3, 4, 5, 6, 7, 8)

	assert.Equal(t, 6.0, ringqueue.Average(r))
	assert.Equal(t, 5, r.Count(), "Average must not move the cursors")
	assert.Equal(t, []int{4, 5, 6, 7, 8}, drain(t, r))
}

func TestAverageFloat(t *testing.T) {
	r, _ := newTracked[float32](t, 4)
	writeAll(t, r, 1.5, 2.5, 3.5, 4.5)
	assert.InDelta(t, 3.0, ringqueue.Average(r), 1e-9)
}

// Summing in float64 must not overflow narrow integer types.
func TestAverageNarrowInts(t *testing.T) {
	r, _ := newTracked[int8](t, 3)
	writeAll[int8](t, r, 120, 120, 123)
	assert.InDelta(t, 121.0, ringqueue.Average(r), 1e-9)

	u, _ := newTracked[uint8](t, 3)
	writeAll[uint8](t, u, 250, 251, 255)
	assert.InDelta(t, 252.0, ringqueue.Average(u), 1e-9)
}

func TestAveragePartiallyRead(t *testing.T) {
	r, _ := newTracked[int64](t, 6)
	writeAll[int64](t, r, 10, 20, 30, 40)
	_, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 30.0, ringqueue.Average(r))
}
