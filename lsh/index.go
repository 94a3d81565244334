package lsh

import (
	"iter"
	"maps"
	"math"
	"slices"

	"github.com/hupe1980/wvgo/internal/errs"
)

// MaxIndexBits is the widest signature an Index can bucket.
const MaxIndexBits = 64

// Index buckets values of type T by packed signature.
type Index[T any] struct {
	*Hasher
	buckets map[uint64][]T
	entries int
}

// NewIndex creates an empty index for dim-dimensional vectors with 1..64
// bit signatures.
func NewIndex[T any](dim, nbits int, opts ...Option) (*Index[T], error) {
	if nbits < 1 || nbits > MaxIndexBits {
		return nil, errs.Invalid("bits", "must be in [1, %d], got %d", MaxIndexBits, nbits)
	}
	h, err := NewHasher(dim, nbits, opts...)
	if err != nil {
		return nil, err
	}
	return &Index[T]{Hasher: h, buckets: make(map[uint64][]T)}, nil
}

// Add stores value under the signature of v and returns that signature.
func (x *Index[T]) Add(v []float32, value T) uint64 {
	sig := x.Hash(v)
	x.AddHash(sig, value)
	return sig
}

// AddHash stores value under sig.
func (x *Index[T]) AddHash(sig uint64, value T) {
	x.buckets[sig] = append(x.buckets[sig], value)
	x.entries++
}

// Bucket returns the values stored under sig in insertion order.
func (x *Index[T]) Bucket(sig uint64) []T { return x.buckets[sig] }

// Len returns the number of stored values.
func (x *Index[T]) Len() int { return x.entries }

// LoadFactor returns entries / 2^bits.
func (x *Index[T]) LoadFactor() float64 {
	return float64(x.entries) / math.Ldexp(1, x.bits)
}

// Buckets iterates over non-empty buckets in ascending signature order.
func (x *Index[T]) Buckets() iter.Seq2[uint64, []T] {
	return func(yield func(uint64, []T) bool) {
		for _, sig := range slices.Sorted(maps.Keys(x.buckets)) {
			if !yield(sig, x.buckets[sig]) {
				return
			}
		}
	}
}

// Neighbors returns the values stored within Hamming distance minDist..bits
// of sig, ordered by increasing distance. Within one distance, buckets are
// visited in flip-mask order and values in insertion order. When number > 0
// at most number values are produced. Enumeration stops early once every
// stored value has been produced.
//
// The sequence is lazy and may be ranged over more than once.
func (x *Index[T]) Neighbors(sig uint64, minDist, number int) (iter.Seq[T], error) {
	if minDist < 0 {
		return nil, errs.Invalid("min_dist", "must be >= 0, got %d", minDist)
	}
	return func(yield func(T) bool) {
		produced := 0
		for d := minDist; d <= x.bits; d++ {
			for n := range HammingNeighbors(sig, x.bits, d) {
				for _, v := range x.buckets[n] {
					if number > 0 && produced >= number {
						return
					}
					if !yield(v) {
						return
					}
					produced++
				}
				if minDist == 0 && produced == x.entries {
					return
				}
			}
		}
	}, nil
}

// HammingNeighbors yields every nbits-bit value at Hamming distance d from
// sig, enumerating flip masks in increasing numeric order.
func HammingNeighbors(sig uint64, nbits, d int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if d < 0 || d > nbits {
			return
		}
		if d == 0 {
			yield(sig)
			return
		}
		mask := ^uint64(0) >> (64 - d)
		last := mask << (nbits - d)
		for {
			if !yield(sig ^ mask) {
				return
			}
			if mask == last {
				return
			}
			mask = NextSamePopcount(mask)
		}
	}
}
