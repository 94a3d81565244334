package lsh

import (
	"math"
	"math/bits"
	"math/rand"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/wvgo/distance"
	"github.com/hupe1980/wvgo/internal/errs"
)

// Option configures a Hasher or Index.
type Option func(*options)

type options struct {
	seed   int64
	seeded bool
}

// WithSeed makes hyperplane generation deterministic.
// Without it a random seed is drawn.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// Hasher holds bits random unit hyperplanes in dim-space.
type Hasher struct {
	dim     int
	bits    int
	planes  [][]float32
	hdToCos []float64
}

// NewHasher creates a hasher producing bits-bit signatures for dim-dimensional
// vectors. Any width >= 1 is allowed; Hash additionally requires bits <= 64.
func NewHasher(dim, nbits int, opts ...Option) (*Hasher, error) {
	if dim < 1 {
		return nil, errs.Invalid("dim", "must be >= 1, got %d", dim)
	}
	if nbits < 1 {
		return nil, errs.Invalid("bits", "must be >= 1, got %d", nbits)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Int63() //nolint:gosec
	}

	rng := rand.New(rand.NewSource(o.seed)) //nolint:gosec
	planes := make([][]float32, nbits)
	for i := range planes {
		plane := make([]float32, dim)
		for {
			for j := range plane {
				plane[j] = float32(rng.NormFloat64())
			}
			if distance.NormalizeL2InPlace(plane) {
				break
			}
		}
		planes[i] = plane
	}

	hdToCos := make([]float64, nbits+1)
	for hd := range hdToCos {
		hdToCos[hd] = math.Cos(float64(hd) / float64(nbits) * math.Pi)
	}

	return &Hasher{dim: dim, bits: nbits, planes: planes, hdToCos: hdToCos}, nil
}

// Dim returns the vector dimensionality.
func (h *Hasher) Dim() int { return h.dim }

// Bits returns the signature width.
func (h *Hasher) Bits() int { return h.bits }

// Hash returns the signature of v packed most-significant bit first: the
// first hyperplane decides the highest of the Bits() low bits.
// It must only be used when Bits() <= 64.
func (h *Hasher) Hash(v []float32) uint64 {
	var sig uint64
	for _, u := range h.planes {
		sig <<= 1
		if distance.Dot(u, v) > 0 {
			sig |= 1
		}
	}
	return sig
}

// Sign returns the signature of v as a bitset of any width.
// Bit i is set when v lies on the positive side of hyperplane i.
func (h *Hasher) Sign(v []float32) *bitset.BitSet {
	sig := bitset.New(uint(h.bits))
	for i, u := range h.planes {
		if distance.Dot(u, v) > 0 {
			sig.Set(uint(i))
		}
	}
	return sig
}

// HashSimilarity returns 1 - hd/bits for the Hamming distance hd between
// two packed signatures.
func (h *Hasher) HashSimilarity(h1, h2 uint64) float64 {
	return 1 - float64(bits.OnesCount64(h1^h2))/float64(h.bits)
}

// CosineSimilarity estimates the cosine similarity of the vectors behind
// two packed signatures.
func (h *Hasher) CosineSimilarity(h1, h2 uint64) float64 {
	return h.hdToCos[bits.OnesCount64(h1^h2)]
}

// SignatureSimilarity estimates the cosine similarity of the vectors behind
// two signatures returned by Sign.
func (h *Hasher) SignatureSimilarity(s1, s2 *bitset.BitSet) float64 {
	return h.hdToCos[s1.SymmetricDifferenceCardinality(s2)]
}

// HashSimilarity returns 1 - hd/nbits for packed nbits-bit signatures.
func HashSimilarity(h1, h2 uint64, nbits int) float64 {
	return 1 - float64(bits.OnesCount64(h1^h2))/float64(nbits)
}

// NextSamePopcount returns the smallest integer greater than m with the same
// number of set bits (Hacker's Delight, snoob). m must be non-zero.
func NextSamePopcount(m uint64) uint64 {
	smallest := m & -m
	ripple := m + smallest
	ones := ((m ^ ripple) >> 2) / smallest
	return ripple | ones
}
