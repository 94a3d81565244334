package distance

import (
	"slices"

	"github.com/hupe1980/wvgo/internal/math32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math32.Norm(v)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm; v is left untouched in that case.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm := math32.Norm(v)
	if norm == 0 {
		return false
	}
	math32.ScaleInPlace(v, float32(1/norm))
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Cosine returns the cosine similarity of a and b.
// Returns false if either vector has zero L2 norm.
func Cosine(a, b []float32) (float32, bool) {
	na, nb := math32.Norm(a), math32.Norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}
	return float32(float64(math32.Dot(a, b)) / (na * nb)), true
}

// Mean returns the element-wise mean of vs. All vectors must share a length.
func Mean(vs ...[]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float32, len(vs[0]))
	for _, v := range vs {
		math32.AddInPlace(out, v)
	}
	math32.ScaleInPlace(out, 1/float32(len(vs)))
	return out
}
