package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

// Clamp limits f to [low, high] for any ordered type.
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Wrap maps f into [low, high), e.g. an angle into [0, 360).
func Wrap[T constraints.Float](f, low, high T) T {
	span := high - low
	if span <= 0 {
		return low
	}
	r := T(stdmath.Mod(float64(f-low), float64(span)))
	if r < 0 {
		r += span
	}
	return low + r
}
