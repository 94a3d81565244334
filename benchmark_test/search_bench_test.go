package benchmark_test

import (
	"testing"

	"github.com/hupe1980/wvgo"
)

// BenchmarkNearest benchmarks exact nearest-neighbor search
func BenchmarkNearest(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	dim := 100

	for _, size := range sizes {
		b.Run(formatCount(size), func(b *testing.B) {
			s := newStore(b, size, dim)
			words := s.Words()
			b.ResetTimer()

			for i := 0; b.Loop(); i++ {
				if _, err := s.Nearest(wvgo.WordQuery(words[i%len(words)]), 10); err != nil {
					b.Fatal(err)
				}
			}

			b.StopTimer()
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "qps")
		})
	}
}

// BenchmarkNearestDims benchmarks exact search across vector widths
func BenchmarkNearestDims(b *testing.B) {
	dimensions := []int{50, 100, 300}
	size := 10000

	for _, dim := range dimensions {
		b.Run(formatDim(dim), func(b *testing.B) {
			s := newStore(b, size, dim)
			b.ResetTimer()

			for i := 0; b.Loop(); i++ {
				if _, err := s.Nearest(wvgo.WordQuery(s.Vocabulary().Word(i%size)), 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkApproximateNearest benchmarks LSH search and reports recall
// against exact search
func BenchmarkApproximateNearest(b *testing.B) {
	sizes := []int{10000, 100000}
	dim := 100
	modes := []struct {
		name         string
		neighborhood bool
	}{
		{"neighborhood", true},
		{"buckets", false},
	}

	for _, size := range sizes {
		for _, mode := range modes {
			b.Run(formatCount(size)+"/"+mode.name, func(b *testing.B) {
				s := newStore(b, size, dim)
				opt := wvgo.WithHashNeighborhood(mode.neighborhood)

				// Build the index outside the timed loop.
				if _, err := s.ApproximateNearest(wvgo.WordQuery("w0"), 10, opt); err != nil {
					b.Fatal(err)
				}
				b.ResetTimer()

				for i := 0; b.Loop(); i++ {
					if _, err := s.ApproximateNearest(wvgo.WordQuery(s.Vocabulary().Word(i%size)), 10, opt); err != nil {
						b.Fatal(err)
					}
				}

				b.StopTimer()
				b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "qps")

				const numSamples = 50
				var sumRecall float64
				for q := range numSamples {
					w := s.Vocabulary().Word(q * (size / numSamples))
					truth, err := s.Nearest(wvgo.WordQuery(w), 10)
					if err != nil {
						b.Fatal(err)
					}
					res, err := s.ApproximateNearest(wvgo.WordQuery(w), 10, opt)
					if err != nil {
						b.Fatal(err)
					}
					sumRecall += recallAtK(res, truth)
				}
				b.ReportMetric(sumRecall/numSamples, "recall@10")
			})
		}
	}
}

// BenchmarkIndexBuild benchmarks building the LSH index from scratch
func BenchmarkIndexBuild(b *testing.B) {
	sizes := []int{10000, 100000}
	dim := 100

	for _, size := range sizes {
		b.Run(formatCount(size), func(b *testing.B) {
			s := newStore(b, size, dim)
			b.ResetTimer()

			for i := 0; b.Loop(); i++ {
				// Alternating widths forces a rebuild every iteration.
				bits := 16 + i%2
				if _, err := s.ApproximateNearest(wvgo.WordQuery("w0"), 1, wvgo.WithBits(bits), wvgo.WithExactEvalCount(1)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkApproximateSimilarity benchmarks signature-based similarity
func BenchmarkApproximateSimilarity(b *testing.B) {
	widths := []int{64, 256, 1024}
	s := newStore(b, 10000, 100)

	for _, bits := range widths {
		b.Run(formatCount(bits)+"bits", func(b *testing.B) {
			for i := 0; b.Loop(); i++ {
				w1 := s.Vocabulary().Word(i % s.Len())
				w2 := s.Vocabulary().Word((i * 7) % s.Len())
				if _, err := s.ApproximateSimilarity(wvgo.WordQuery(w1), wvgo.WordQuery(w2), bits); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
