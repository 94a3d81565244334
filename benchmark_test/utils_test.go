package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/wvgo"
	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/testutil"
	"github.com/hupe1980/wvgo/vocab"
)

// newStore builds a normalized store of clustered vectors, 20 words per
// cluster, so that approximate search has real neighbors to find.
func newStore(tb testing.TB, words, dim int) *wvgo.Store {
	tb.Helper()
	rng := testutil.NewRNG(42)
	v, err := vocab.FromWords(testutil.Words(words))
	if err != nil {
		tb.Fatal(err)
	}
	m, err := matrix.FromRows(rng.ClusteredVectors(words, dim, max(1, words/20), 0.05))
	if err != nil {
		tb.Fatal(err)
	}
	s, err := wvgo.New(config.Default(words, dim), v, m, wvgo.WithSeed(42))
	if err != nil {
		tb.Fatal(err)
	}
	if _, err := s.Normalize(); err != nil {
		tb.Fatal(err)
	}
	return s
}

// recallAtK returns the share of truth found in results.
func recallAtK(results, truth []wvgo.Result) float64 {
	if len(truth) == 0 {
		return 0
	}
	set := make(map[int]struct{}, len(truth))
	for _, r := range truth {
		set[r.Rank] = struct{}{}
	}
	var hit int
	for _, r := range results {
		if _, ok := set[r.Rank]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

func formatDim(dim int) string {
	return fmt.Sprintf("dim=%d", dim)
}

func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("n=%dM", n/1_000_000)
	case n >= 1000:
		return fmt.Sprintf("n=%dK", n/1000)
	default:
		return fmt.Sprintf("n=%d", n)
	}
}
