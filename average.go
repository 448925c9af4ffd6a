package ringqueue

import "golang.org/x/exp/constraints"

// Numeric is satisfied by all integer and floating point types.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Average returns the mean of the unread elements of r, summed in float64.
// It returns 0 for an empty ring and does not move the cursors.
func Average[T Numeric](r *Ring[T]) float64 {
	if r.length == 0 {
		return 0
	}
	var sum float64
	for v := range r.Values() {
		sum += float64(v)
	}
	return sum / float64(r.length)
}
