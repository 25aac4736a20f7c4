package embedding

import "math"

// NormalizeVector scales a vector to unit length in place and returns it.
// Stored and query vectors are all normalized, which makes cosine
// similarity a plain dot product at search time. A zero vector is returned
// unchanged.
func NormalizeVector(vector []float32) []float32 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}

	norm := 1.0 / math.Sqrt(sumSquares)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) * norm)
	}
	return vector
}
