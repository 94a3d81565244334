package wvgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/distance"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/resource"
	"github.com/hupe1980/wvgo/testutil"
	"github.com/hupe1980/wvgo/vocab"
)

func newTestStore(t *testing.T, words []string, rows [][]float32, optFns ...Option) *Store {
	t.Helper()
	v, err := vocab.FromWords(words)
	require.NoError(t, err)
	m, err := matrix.FromRows(rows)
	require.NoError(t, err)
	s, err := New(config.Default(len(words), m.Dim()), v, m, optFns...)
	require.NoError(t, err)
	return s
}

func resultWords(res []Result) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.Word
	}
	return out
}

func TestNearest(t *testing.T) {
	t.Run("Orthogonal", func(t *testing.T) {
		v, err := vocab.New([]vocab.Entry{{Word: "a", Count: 5}, {Word: "b", Count: 3}})
		require.NoError(t, err)
		m, err := matrix.FromRows([][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)
		s, err := New(config.Config{Version: 1, WordCount: 2, VectorDim: 2, Format: config.NPY}, v, m)
		require.NoError(t, err)

		res, err := s.Nearest(WordQuery("a"), 1)
		require.NoError(t, err)
		assert.Equal(t, []Result{{Word: "b", Rank: 1, Similarity: 0}}, res)

		res, err = s.Nearest(WordQuery("a"), 1, WithExclude("a"))
		require.NoError(t, err)
		assert.Equal(t, []Result{{Word: "b", Rank: 1, Similarity: 0}}, res)
	})

	t.Run("ExcludeNothing", func(t *testing.T) {
		s := newTestStore(t, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})

		res, err := s.Nearest(WordQuery("a"), 1, WithExclude())
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "a", res[0].Word)
		assert.InDelta(t, 1.0, res[0].Similarity, 1e-6)
	})

	t.Run("VectorQuery", func(t *testing.T) {
		s := newTestStore(t, []string{"x", "y", "z"}, [][]float32{{2, 0}, {1, 1}, {0, -3}})

		res, err := s.Nearest(VectorQuery([]float32{5, 0}), 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, resultWords(res))
		assert.InDelta(t, 1.0, res[0].Similarity, 1e-6)
		assert.InDelta(t, math.Sqrt2/2, res[1].Similarity, 1e-6)
		assert.InDelta(t, 0.0, res[2].Similarity, 1e-6)
	})

	t.Run("MatchesBruteForce", func(t *testing.T) {
		rng := testutil.NewRNG(7)
		rows := rng.UniformRangeVectors(200, 16)
		words := testutil.Words(200)
		s := newTestStore(t, words, rows)

		query := rng.UniformRangeVectors(1, 16)[0]
		exclude := []string{"w3", "w17", "w42"}
		res, err := s.Nearest(VectorQuery(query), 10, WithExclude(exclude...))
		require.NoError(t, err)
		require.Len(t, res, 10)

		truth := testutil.BruteForceSearch(rows, query, 10, 3, 17, 42)
		for i, r := range res {
			assert.NotContains(t, exclude, r.Word)
			assert.Equal(t, truth[i].ID, r.Rank)
			assert.InDelta(t, truth[i].Score, r.Similarity, 1e-5)
			if i > 0 {
				assert.LessOrEqual(t, r.Similarity, res[i-1].Similarity)
			}
		}
	})

	t.Run("AtMostN", func(t *testing.T) {
		s := newTestStore(t, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 1}})

		res, err := s.Nearest(WordQuery("a"), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b"}, resultWords(res))

		require.NotPanics(t, func() {
			res, err = s.Nearest(WordQuery("a"), 1<<62)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b"}, resultWords(res))

		res, err = s.Nearest(WordQuery("a"), 1<<62, WithCandidates("b", "c"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b"}, resultWords(res))
	})

	t.Run("TiesKeepScanOrder", func(t *testing.T) {
		s := newTestStore(t, []string{"q", "b", "c", "d"}, [][]float32{{1, 0}, {0, 1}, {0, 2}, {0, 1}})

		res, err := s.Nearest(WordQuery("q"), 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, resultWords(res))
	})

	t.Run("Candidates", func(t *testing.T) {
		s := newTestStore(t, []string{"a", "b", "c", "d"}, [][]float32{{1, 0}, {1, 0.1}, {0, 1}, {-1, 0}})

		res, err := s.Nearest(WordQuery("a"), 2, WithCandidates("c", "d"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, resultWords(res))

		_, err = s.Nearest(WordQuery("a"), 2, WithCandidates("zzz"))
		assert.ErrorIs(t, err, ErrLookup)
	})

	t.Run("Errors", func(t *testing.T) {
		s := newTestStore(t, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})

		_, err := s.Nearest(WordQuery("missing"), 1)
		assert.ErrorIs(t, err, ErrLookup)

		_, err = s.Nearest(WordQuery("a"), 0)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = s.Nearest(VectorQuery([]float32{1, 2, 3}), 1)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = s.Nearest(VectorQuery([]float32{0, 0}), 1)
		var ne *NumericError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, -1, ne.Index)
	})

	t.Run("ZeroRowUnnormalized", func(t *testing.T) {
		s := newTestStore(t, []string{"a", "z"}, [][]float32{{1, 0}, {0, 0}})

		_, err := s.Nearest(WordQuery("a"), 1)
		var ne *NumericError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, 1, ne.Index)
	})
}

func TestApproximateNearest(t *testing.T) {
	const (
		num      = 1000
		dim      = 50
		clusters = 50
		k        = 10
		queries  = 50
	)
	rng := testutil.NewRNG(42)
	rows := rng.ClusteredVectors(num, dim, clusters, 0.02)
	s := newTestStore(t, testutil.Words(num), rows, WithSeed(42))
	_, err := s.Normalize()
	require.NoError(t, err)

	for _, neighborhood := range []bool{true, false} {
		name := "HashNeighborhood"
		if !neighborhood {
			name = "BucketRanking"
		}
		t.Run(name, func(t *testing.T) {
			var recall float64
			for q := range queries {
				w := s.Vocabulary().Word(q * (num / queries))
				exact, err := s.Nearest(WordQuery(w), k)
				require.NoError(t, err)
				approx, err := s.ApproximateNearest(WordQuery(w), k, WithHashNeighborhood(neighborhood))
				require.NoError(t, err)
				require.LessOrEqual(t, len(approx), k)

				for _, r := range approx {
					assert.NotEqual(t, w, r.Word)
				}
				recall += testutil.ComputeRecall(toSearchResults(exact), toSearchResults(approx))
			}
			assert.GreaterOrEqual(t, recall/queries, 0.8)
		})
	}

	t.Run("IndexCachedPerWidth", func(t *testing.T) {
		_, err := s.ApproximateNearest(WordQuery("w0"), k)
		require.NoError(t, err)
		idx := s.index
		require.NotNil(t, idx)
		assert.Equal(t, 10, idx.Bits())

		_, err = s.ApproximateNearest(WordQuery("w0"), k)
		require.NoError(t, err)
		assert.Same(t, idx, s.index)

		_, err = s.ApproximateNearest(WordQuery("w0"), k, WithBits(12))
		require.NoError(t, err)
		assert.Equal(t, 12, s.index.Bits())
	})

	t.Run("ExactEvalCount", func(t *testing.T) {
		res, err := s.ApproximateNearest(WordQuery("w0"), k, WithExactEvalCount(3))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res), 3)

		res, err = s.ApproximateNearest(WordQuery("w0"), k, WithExactEval(0.0001))
		require.NoError(t, err)
		assert.Empty(t, res)

		_, err = s.ApproximateNearest(WordQuery("w0"), k, WithExactEval(-1))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ExactEvalBeyondVocabulary", func(t *testing.T) {
		exact, err := s.Nearest(WordQuery("w0"), 2)
		require.NoError(t, err)

		for _, neighborhood := range []bool{true, false} {
			var res []Result
			require.NotPanics(t, func() {
				res, err = s.ApproximateNearest(WordQuery("w0"), 2, WithExactEvalCount(1<<62), WithHashNeighborhood(neighborhood))
			})
			require.NoError(t, err)
			assert.Equal(t, resultWords(exact), resultWords(res))
		}

		res, err := s.ApproximateNearest(WordQuery("w0"), 2, WithExactEval(1e300))
		require.NoError(t, err)
		assert.Equal(t, resultWords(exact), resultWords(res))
	})

	t.Run("InvalidBits", func(t *testing.T) {
		_, err := s.ApproximateNearest(WordQuery("w0"), k, WithBits(65))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func toSearchResults(res []Result) []testutil.SearchResult {
	out := make([]testutil.SearchResult, len(res))
	for i, r := range res {
		out[i] = testutil.SearchResult{ID: r.Rank, Score: r.Similarity}
	}
	return out
}

func TestLSHBits(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 4}, {1, 4}, {16, 4}, {17, 5}, {1000, 10}, {1024, 10}, {1025, 11},
	}
	for _, tt := range tests {
		s := &Store{cfg: config.Config{WordCount: tt.words}}
		assert.Equal(t, tt.want, s.lshBits(0), "words=%d", tt.words)
		assert.Equal(t, 7, s.lshBits(7))
	}
}

func TestSimilarity(t *testing.T) {
	s := newTestStore(t, []string{"a", "b", "c"}, [][]float32{{3, 0}, {1, 1}, {0, 0}})

	sim, err := s.WordSimilarity("a", "b")
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, sim, 1e-6)

	sim, err = s.Similarity(WordQuery("a"), VectorQuery([]float32{0, -2}))
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-6)

	_, err = s.WordSimilarity("a", "nope")
	assert.ErrorIs(t, err, ErrLookup)

	_, err = s.WordSimilarity("a", "c")
	var ne *NumericError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 2, ne.Index)
}

func TestApproximateSimilarity(t *testing.T) {
	rng := testutil.NewRNG(3)
	rows := rng.UnitVectors(20, 32)
	rows[1] = append([]float32(nil), rows[0]...)
	s := newTestStore(t, testutil.Words(20), rows, WithSeed(9))

	sim, err := s.ApproximateSimilarity(WordQuery("w0"), WordQuery("w1"), 256)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	neg := make([]float32, 32)
	for i, x := range rows[0] {
		neg[i] = -x
	}
	sim, err = s.ApproximateSimilarity(WordQuery("w0"), VectorQuery(neg), 256)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	exact, err := s.WordSimilarity("w2", "w3")
	require.NoError(t, err)
	sim, err = s.ApproximateSimilarity(WordQuery("w2"), WordQuery("w3"), 1024)
	require.NoError(t, err)
	assert.InDelta(t, float64(exact), sim, 0.2)

	require.NotNil(t, s.sigs[2])
	_, err = s.Normalize()
	require.NoError(t, err)
	assert.Nil(t, s.signer)
	assert.Nil(t, s.sigs)

	_, err = s.ApproximateSimilarity(WordQuery("w0"), WordQuery("nope"), 0)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestVectorAccess(t *testing.T) {
	v, err := vocab.New([]vocab.Entry{{Word: "the", Count: 10}, {Word: "cat", Count: 4}, {Word: "sat", Count: 1}})
	require.NoError(t, err)
	m, err := matrix.FromRows([][]float32{{1, 2, 2}, {0, 3, 4}, {2, 0, 0}})
	require.NoError(t, err)
	s, err := New(config.Default(3, 3), v, m)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Dim())
	assert.Equal(t, []string{"the", "cat", "sat"}, s.Words())
	assert.True(t, s.Contains("cat"))
	assert.False(t, s.Contains("dog"))

	r, err := s.Rank("sat")
	require.NoError(t, err)
	assert.Equal(t, 2, r)

	vec, err := s.Vector("cat")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 4}, vec)

	_, err = s.Vector("dog")
	assert.ErrorIs(t, err, ErrLookup)

	u, err := s.UnitVector("cat")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 0.6, 0.8}, u, 1e-6)
	assert.Equal(t, []float32{0, 3, 4}, vec, "stored vector untouched")

	mean, err := s.WordsToVector("the", "sat")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.5, 1, 1}, mean, 1e-6)

	_, err = s.WordsToVector()
	assert.ErrorIs(t, err, ErrValidation)

	var words []string
	for w, vec := range s.All() {
		words = append(words, w)
		assert.Len(t, vec, 3)
	}
	assert.Equal(t, []string{"the", "cat", "sat"}, words)
}

func TestNormalize(t *testing.T) {
	s := newTestStore(t, []string{"a", "b"}, [][]float32{{3, 4}, {0, 2}})
	_, err := s.Nearest(WordQuery("a"), 1)
	require.NoError(t, err)
	_, err = s.ApproximateNearest(WordQuery("a"), 1)
	require.NoError(t, err)
	require.NotNil(t, s.w2v)
	require.NotNil(t, s.index)

	got, err := s.Normalize()
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.True(t, s.Normalized())
	assert.Nil(t, s.w2v)
	assert.Nil(t, s.index)

	once := append([]float32(nil), s.Vectors().Data()...)
	_, err = s.Normalize()
	require.NoError(t, err)
	assert.Equal(t, once, s.Vectors().Data())

	for _, row := range s.Vectors().Rows() {
		assert.InDelta(t, 1.0, distance.Norm(row), 1e-6)
	}

	u, err := s.UnitVector("a")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, u, 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	s := newTestStore(t, []string{"a", "z"}, [][]float32{{3, 4}, {0, 0}})

	_, err := s.Normalize()
	assert.ErrorIs(t, err, ErrNumeric)
	assert.False(t, s.Normalized())
	assert.Equal(t, []float32{3, 4, 0, 0}, s.Vectors().Data())
}

func TestFilterByRank(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	s := newTestStore(t, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 1}}, WithResourceController(rc))
	assert.Equal(t, int64(3*2*4), rc.MemoryUsage())

	_, err := s.Nearest(WordQuery("a"), 1)
	require.NoError(t, err)
	require.NotNil(t, s.w2v)

	got, err := s.FilterByRank(2)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Nil(t, s.w2v)
	assert.Equal(t, []string{"a", "b"}, s.Words())
	assert.Equal(t, 2, s.Vectors().Len())
	assert.Equal(t, 2, s.Config().WordCount)
	assert.False(t, s.Contains("c"))
	assert.Equal(t, int64(2*2*4), rc.MemoryUsage())

	_, err = s.FilterByRank(5)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = s.FilterByRank(-1)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, s.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())
	require.NoError(t, s.Close())
}

func TestNew_Consistency(t *testing.T) {
	v, err := vocab.FromWords([]string{"a", "b"})
	require.NoError(t, err)
	m, err := matrix.FromRows([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"WordCount", config.Default(3, 2)},
		{"VectorDim", config.Default(2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, v, m)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	short, err := matrix.FromRows([][]float32{{1, 0}})
	require.NoError(t, err)
	_, err = New(config.Default(2, 2), v, short)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = New(config.Config{WordCount: 2, VectorDim: 2, Format: "hdf5"}, v, m)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestNew_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	v, err := vocab.FromWords([]string{"a", "b"})
	require.NoError(t, err)
	m, err := matrix.FromRows([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	_, err = New(config.Default(2, 2), v, m, WithResourceController(rc))
	assert.ErrorIs(t, err, ErrMemoryLimit)
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}
	s := newTestStore(t, testutil.Words(4), [][]float32{{1, 0}, {0, 1}, {1, 1}, {-1, 0}}, WithMetricsCollector(mc), WithSeed(1))

	_, err := s.Nearest(WordQuery("w0"), 2)
	require.NoError(t, err)
	_, err = s.ApproximateNearest(WordQuery("w0"), 2, WithExactEvalCount(4))
	require.NoError(t, err)
	_, err = s.Nearest(WordQuery("nope"), 2)
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchErrors)
	assert.Equal(t, int64(1), stats.ApproxSearchCount)
	assert.Equal(t, int64(1), stats.IndexBuildCount)
	assert.Equal(t, int64(3+3), stats.CandidatesScored)
}
