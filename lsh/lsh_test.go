package lsh

import (
	"math/bits"
	"slices"
	"testing"

	"github.com/hupe1980/wvgo/distance"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasher(t *testing.T) {
	h, err := NewHasher(8, 16, WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, 8, h.Dim())
	assert.Equal(t, 16, h.Bits())
	for _, p := range h.planes {
		assert.InDelta(t, 1.0, distance.Norm(p), 1e-5)
	}

	_, err = NewHasher(0, 4)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = NewHasher(4, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = NewIndex[int](4, 65)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSeedIsDeterministic(t *testing.T) {
	a, err := NewHasher(5, 12, WithSeed(7))
	require.NoError(t, err)
	b, err := NewHasher(5, 12, WithSeed(7))
	require.NoError(t, err)
	assert.Equal(t, a.planes, b.planes)
}

func TestHashMatchesSign(t *testing.T) {
	h, err := NewHasher(6, 20, WithSeed(3))
	require.NoError(t, err)
	v := []float32{0.3, -1, 2, 0.5, -0.2, 1}

	sig := h.Hash(v)
	set := h.Sign(v)
	for i := range h.Bits() {
		// plane i is stored at bit (bits-1-i) of the packed hash
		packed := sig>>(uint(h.Bits()-1-i))&1 == 1
		assert.Equal(t, set.Test(uint(i)), packed, "plane %d", i)
	}
	assert.Less(t, sig, uint64(1)<<20)
}

func TestHashMSBFirst(t *testing.T) {
	h := &Hasher{dim: 2, bits: 2, planes: [][]float32{{1, 0}, {0, 1}}}
	assert.Equal(t, uint64(0b10), h.Hash([]float32{1, -1}))
	assert.Equal(t, uint64(0b01), h.Hash([]float32{-1, 1}))
	// dot == 0 is not positive
	assert.Equal(t, uint64(0b00), h.Hash([]float32{0, 0}))
}

func TestHashSimilarity(t *testing.T) {
	h, err := NewHasher(3, 8, WithSeed(1))
	require.NoError(t, err)

	pairs := [][2]uint64{{0, 0}, {0b1010, 0b0110}, {0xff, 0}, {0x0f, 0xf0}, {0x81, 0x18}}
	for _, p := range pairs {
		assert.Equal(t, h.HashSimilarity(p[0], p[1]), h.HashSimilarity(p[1], p[0]))
		assert.Equal(t, h.CosineSimilarity(p[0], p[1]), h.CosineSimilarity(p[1], p[0]))
	}
	assert.Equal(t, 1.0, h.HashSimilarity(0xab, 0xab))
	assert.Equal(t, 0.0, h.HashSimilarity(0xff, 0x00))
	assert.Equal(t, 0.75, h.HashSimilarity(0b11, 0))
	assert.Equal(t, 0.75, HashSimilarity(0b11, 0, 8))

	assert.InDelta(t, 1.0, h.CosineSimilarity(5, 5), 1e-12)
	assert.InDelta(t, -1.0, h.CosineSimilarity(0xff, 0), 1e-12)
	assert.InDelta(t, 0.0, h.CosineSimilarity(0x0f, 0), 1e-12)
}

func TestSignatureSimilarity(t *testing.T) {
	h, err := NewHasher(4, 200, WithSeed(11))
	require.NoError(t, err)

	v := []float32{1, 2, 3, 4}
	assert.InDelta(t, 1.0, h.SignatureSimilarity(h.Sign(v), h.Sign(v)), 1e-12)

	neg := []float32{-1, -2, -3, -4}
	assert.InDelta(t, -1.0, h.SignatureSimilarity(h.Sign(v), h.Sign(neg)), 1e-12)

	// orthogonal vectors land near zero with 200 planes
	assert.InDelta(t, 0.0, h.SignatureSimilarity(h.Sign([]float32{1, 0, 0, 0}), h.Sign([]float32{0, 1, 0, 0})), 0.35)
}

func TestNextSamePopcount(t *testing.T) {
	assert.Equal(t, uint64(0b10), NextSamePopcount(0b01))
	assert.Equal(t, uint64(0b101), NextSamePopcount(0b011))
	assert.Equal(t, uint64(0b110), NextSamePopcount(0b101))
	assert.Equal(t, uint64(0b1000111), NextSamePopcount(0b0111100))

	m := uint64(0b111)
	for range 50 {
		next := NextSamePopcount(m)
		assert.Greater(t, next, m)
		assert.Equal(t, 3, bits.OnesCount64(next))
		m = next
	}
}

func TestHammingNeighbors(t *testing.T) {
	t.Run("CountsAreBinomial", func(t *testing.T) {
		want := []int{1, 5, 10, 10, 5, 1}
		for d, n := range want {
			var got []uint64
			for x := range HammingNeighbors(0b10110, 5, d) {
				assert.Equal(t, d, bits.OnesCount64(x^0b10110))
				assert.Less(t, x, uint64(32))
				got = append(got, x)
			}
			assert.Len(t, got, n, "distance %d", d)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		assert.Empty(t, slices.Collect(HammingNeighbors(0, 4, 5)))
		assert.Empty(t, slices.Collect(HammingNeighbors(0, 4, -1)))
	})

	t.Run("SixtyFourBits", func(t *testing.T) {
		var n int
		for x := range HammingNeighbors(0, 64, 1) {
			assert.Equal(t, 1, bits.OnesCount64(x))
			n++
		}
		assert.Equal(t, 64, n)
		assert.Equal(t, []uint64{^uint64(0)}, slices.Collect(HammingNeighbors(0, 64, 64)))

		var last uint64
		for x := range HammingNeighbors(0, 64, 63) {
			last = x
		}
		assert.Equal(t, ^uint64(1), last)
	})
}

func TestIndexNeighbors(t *testing.T) {
	x, err := NewIndex[string](2, 3, WithSeed(1))
	require.NoError(t, err)

	x.AddHash(0b000, "a")
	x.AddHash(0b001, "b")
	x.AddHash(0b011, "c")
	x.AddHash(0b111, "d")
	x.AddHash(0b000, "a2")
	assert.Equal(t, 5, x.Len())
	assert.Equal(t, []string{"a", "a2"}, x.Bucket(0))
	assert.InDelta(t, 5.0/8, x.LoadFactor(), 1e-12)

	seq, err := x.Neighbors(0b000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a2", "b", "c", "d"}, slices.Collect(seq))
	// restartable
	assert.Equal(t, []string{"a", "a2", "b", "c", "d"}, slices.Collect(seq))

	seq, err = x.Neighbors(0b111, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a", "a2"}, slices.Collect(seq))

	seq, err = x.Neighbors(0b000, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a2", "b"}, slices.Collect(seq))

	_, err = x.Neighbors(0, -1, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestIndexNeighborsOrderedByDistance(t *testing.T) {
	x, err := NewIndex[[]float32](10, 8, WithSeed(5))
	require.NoError(t, err)

	vecs := [][]float32{}
	for i := range 200 {
		v := make([]float32, 10)
		for j := range v {
			v[j] = float32((i*7+j*13)%17) - 8
		}
		vecs = append(vecs, v)
		x.Add(v, v)
	}

	q := x.Hash(vecs[0])
	seq, err := x.Neighbors(q, 0, 0)
	require.NoError(t, err)

	prev, n := 0, 0
	for v := range seq {
		d := bits.OnesCount64(x.Hash(v) ^ q)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
		n++
	}
	assert.Equal(t, 200, n)
}

func TestBucketsSorted(t *testing.T) {
	x, err := NewIndex[int](2, 4, WithSeed(1))
	require.NoError(t, err)
	for _, sig := range []uint64{9, 2, 15, 2} {
		x.AddHash(sig, int(sig))
	}
	var sigs []uint64
	for sig, vals := range x.Buckets() {
		sigs = append(sigs, sig)
		assert.NotEmpty(t, vals)
	}
	assert.Equal(t, []uint64{2, 9, 15}, sigs)
}
