// Package vector provides the per-manual exact nearest-neighbour index and its on-disk store.
//
// Search is a brute-force flat L2 scan, O(n·d) per query. Each manual holds tens to low
// hundreds of chunks, so no approximate structure (trees, graphs, quantization) is used;
// an index past a few hundred thousand vectors would need one.
package vector

import (
	"errors"
	"math"
)

var (
	// ErrCorruptIndex is returned when a persisted index cannot be decoded or violates the
	// parallel-array invariant.
	ErrCorruptIndex = errors.New("corrupt vector index")
	// ErrDimensionMismatch is returned when a query vector has the wrong size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// SquaredL2 returns the squared Euclidean distance between a and b.
// Ordering by squared distance equals ordering by distance.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float32) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}
