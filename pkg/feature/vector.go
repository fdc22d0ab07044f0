package feature

import "math"

// Vector is one track's fixed-length fingerprint, blocks concatenated in
// schema order. Vectors are immutable after creation; re-ingesting a track
// supersedes its vector rather than mutating it.
type Vector []float64

// Finite reports whether every value is a finite number
func (v Vector) Finite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the vector
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Concat assembles a vector from block slices in order
func Concat(blocks ...[]float64) Vector {
	total := 0
	for _, b := range blocks {
		total += len(b)
	}
	out := make(Vector, 0, total)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}
