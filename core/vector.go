package core

import "math"

// NormalizeVector returns a unit-length copy of v. The input is never
// mutated. A zero vector normalizes to a zero vector of the same length.
//
// Normalized vectors let the store use a plain dot product as cosine
// similarity. The squared sum is accumulated in float64 so long vectors
// do not lose precision before the square root.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sum == 0 {
		return result
	}

	inv := 1 / math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) * inv)
	}
	return result
}
