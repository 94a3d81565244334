package wvgo

import (
	"context"
	"fmt"
	"iter"
	"math/bits"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/distance"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/internal/queue"
	"github.com/hupe1980/wvgo/lsh"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/vocab"
)

// lowLoadFactor is the LSH load factor below which neighborhood search
// degrades toward an exhaustive walk.
const lowLoadFactor = 0.1

// Store holds a vocabulary and one vector per word, and answers exact and
// approximate nearest-neighbor queries over them.
//
// A Store is not safe for concurrent use. Normalize and FilterByRank mutate
// it in place and drop every derived cache.
type Store struct {
	cfg     config.Config
	vocab   *vocab.Vocabulary
	vectors *matrix.Matrix
	opts    options

	w2v    map[string][]float32
	index  *lsh.Index[int]
	signer *lsh.Hasher
	sigs   []*bitset.BitSet // by rank, filled on demand

	reserved int64
}

// Result is a nearest-neighbor match.
type Result struct {
	Word       string
	Rank       int
	Similarity float32
}

// Query is either a word or a raw vector.
type Query struct {
	word   string
	vector []float32
	isWord bool
}

// WordQuery queries by the stored vector of w.
func WordQuery(w string) Query { return Query{word: w, isWord: true} }

// VectorQuery queries by v. v is normalized on the fly and not modified.
func VectorQuery(v []float32) Query { return Query{vector: v} }

// IsWord reports whether q names a word.
func (q Query) IsWord() bool { return q.isWord }

func (q Query) String() string {
	if q.isWord {
		return q.word
	}
	return fmt.Sprint(q.vector)
}

// New creates a Store from its parts. The config must agree with the
// vocabulary and matrix sizes; a mismatch fails with *FormatError.
func New(cfg config.Config, v *vocab.Vocabulary, m *matrix.Matrix, optFns ...Option) (*Store, error) {
	return newStore(cfg, v, m, applyOptions(optFns), 0)
}

// newStore takes ownership of reserved bytes already taken from the
// resource controller and reserves the rest.
func newStore(cfg config.Config, v *vocab.Vocabulary, m *matrix.Matrix, o options, reserved int64) (*Store, error) {
	if cfg.Format == "" {
		cfg.Format = config.NPY
	}
	if cfg.Version == 0 {
		cfg.Version = config.FormatVersion
	}
	if err := checkConsistency(cfg, v, m); err != nil {
		o.resource.ReleaseMemory(reserved)
		return nil, err
	}
	need := vectorBytes(cfg)
	if need > reserved {
		if err := o.resource.ReserveMemory(need - reserved); err != nil {
			o.resource.ReleaseMemory(reserved)
			return nil, err
		}
		reserved = need
	}
	return &Store{cfg: cfg, vocab: v, vectors: m, opts: o, reserved: reserved}, nil
}

func vectorBytes(cfg config.Config) int64 {
	return int64(cfg.WordCount) * int64(cfg.VectorDim) * 4
}

func checkConsistency(cfg config.Config, v *vocab.Vocabulary, m *matrix.Matrix) error {
	switch {
	case v == nil || m == nil:
		return errs.Formatf("store needs a vocabulary and a matrix")
	case cfg.WordCount != v.Len():
		return errs.Formatf("config word_count %d does not match vocabulary size %d", cfg.WordCount, v.Len())
	case v.Len() != m.Len():
		return errs.Formatf("vocabulary size %d does not match vector count %d", v.Len(), m.Len())
	case m.Len() > 0 && cfg.VectorDim != m.Dim():
		return errs.Formatf("config vector_dim %d does not match vector dimension %d", cfg.VectorDim, m.Dim())
	}
	return cfg.Validate()
}

// Config returns a copy of the store metadata.
func (s *Store) Config() config.Config { return s.cfg }

// Len returns the number of words.
func (s *Store) Len() int { return s.vocab.Len() }

// Dim returns the vector dimension.
func (s *Store) Dim() int { return s.cfg.VectorDim }

// Normalized reports whether the vectors have unit length.
func (s *Store) Normalized() bool { return s.vectors.Normalized() }

// Words returns the words in rank order.
func (s *Store) Words() []string { return s.vocab.Words() }

// Vectors returns the vector matrix. Callers must not modify it.
func (s *Store) Vectors() *matrix.Matrix { return s.vectors }

// Vocabulary returns the vocabulary. Callers must not modify it.
func (s *Store) Vocabulary() *vocab.Vocabulary { return s.vocab }

// Rank returns the 0-based frequency rank of w.
func (s *Store) Rank(w string) (int, error) { return s.vocab.Rank(w) }

// Contains reports whether w has a vector.
func (s *Store) Contains(w string) bool {
	_, ok := s.mapping()[w]
	return ok
}

// All iterates over (word, vector) pairs in rank order.
func (s *Store) All() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		for i, row := range s.vectors.Rows() {
			if !yield(s.vocab.Word(i), row) {
				return
			}
		}
	}
}

func (s *Store) mapping() map[string][]float32 {
	if s.w2v == nil {
		s.w2v = make(map[string][]float32, s.Len())
		for w, v := range s.All() {
			s.w2v[w] = v
		}
	}
	return s.w2v
}

// Vector returns the stored vector of w. The slice is shared with the store.
func (s *Store) Vector(w string) ([]float32, error) {
	v, ok := s.mapping()[w]
	if !ok {
		return nil, &errs.LookupError{Word: w}
	}
	return v, nil
}

// UnitVector returns the L2-normalized vector of w. Once the store is
// normalized the stored vector itself is returned.
func (s *Store) UnitVector(w string) ([]float32, error) {
	v, err := s.Vector(w)
	if err != nil {
		return nil, err
	}
	if s.Normalized() {
		return v, nil
	}
	u, ok := distance.NormalizeL2Copy(v)
	if !ok {
		r, _ := s.vocab.Rank(w)
		return nil, &errs.NumericError{Index: r, Msg: fmt.Sprintf("zero vector for %q", w)}
	}
	return u, nil
}

// WordsToVector returns the mean vector of words.
func (s *Store) WordsToVector(words ...string) ([]float32, error) {
	if len(words) == 0 {
		return nil, errs.Invalid("words", "at least one word required")
	}
	vs := make([][]float32, len(words))
	for i, w := range words {
		v, err := s.Vector(w)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return distance.Mean(vs...), nil
}

// resolve returns the unit vector of q and, for word queries, its rank.
func (s *Store) resolve(q Query) ([]float32, int, error) {
	if q.isWord {
		r, err := s.vocab.Rank(q.word)
		if err != nil {
			return nil, -1, err
		}
		u, err := s.UnitVector(q.word)
		return u, r, err
	}
	if len(q.vector) != s.Dim() {
		return nil, -1, errs.Invalid("query", "dimension %d, want %d", len(q.vector), s.Dim())
	}
	u, ok := distance.NormalizeL2Copy(q.vector)
	if !ok {
		return nil, -1, &errs.NumericError{Index: -1, Msg: "zero vector"}
	}
	return u, -1, nil
}

// Similarity returns the cosine similarity of two words or vectors.
func (s *Store) Similarity(a, b Query) (float32, error) {
	va, _, err := s.resolve(a)
	if err != nil {
		return 0, err
	}
	vb, _, err := s.resolve(b)
	if err != nil {
		return 0, err
	}
	return distance.Dot(va, vb), nil
}

// WordSimilarity returns the cosine similarity of the vectors of w1 and w2.
func (s *Store) WordSimilarity(w1, w2 string) (float32, error) {
	return s.Similarity(WordQuery(w1), WordQuery(w2))
}

// ApproximateSimilarity estimates the cosine similarity of a and b from
// bits-wide random hyperplane signatures. bits <= 0 selects the default
// width for the vocabulary size. Word signatures are cached until the next
// mutation or width change.
func (s *Store) ApproximateSimilarity(a, b Query, nbits int) (float64, error) {
	nbits = s.lshBits(nbits)
	if s.signer == nil || s.signer.Bits() != nbits {
		h, err := lsh.NewHasher(s.Dim(), nbits, s.lshOptions()...)
		if err != nil {
			return 0, err
		}
		s.signer = h
		s.sigs = make([]*bitset.BitSet, s.Len())
	}
	sa, err := s.signature(a)
	if err != nil {
		return 0, err
	}
	sb, err := s.signature(b)
	if err != nil {
		return 0, err
	}
	return s.signer.SignatureSimilarity(sa, sb), nil
}

func (s *Store) signature(q Query) (*bitset.BitSet, error) {
	if !q.isWord {
		if len(q.vector) != s.Dim() {
			return nil, errs.Invalid("query", "dimension %d, want %d", len(q.vector), s.Dim())
		}
		return s.signer.Sign(q.vector), nil
	}
	r, err := s.vocab.Rank(q.word)
	if err != nil {
		return nil, err
	}
	if s.sigs[r] == nil {
		s.sigs[r] = s.signer.Sign(s.vectors.Row(r))
	}
	return s.sigs[r], nil
}

// Nearest returns the n words most cosine-similar to q, best first.
//
// A word query excludes the query word unless WithExclude is given. Ties
// keep the candidate scan order.
func (s *Store) Nearest(q Query, n int, optFns ...SearchOption) ([]Result, error) {
	start := time.Now()
	o := applySearchOptions(optFns)
	res, scanned, err := s.nearest(q, n, o, nil)
	s.opts.metricsCollector.RecordSearch(n, scanned, false, time.Since(start), err)
	s.opts.logger.LogSearch(context.Background(), n, scanned, len(res), err)
	return res, err
}

// nearest scores candidates (all ranks when nil) against q.
func (s *Store) nearest(q Query, n int, o searchOptions, candidates iter.Seq[int]) ([]Result, int, error) {
	if n < 1 {
		return nil, 0, errs.Invalid("n", "must be >= 1, got %d", n)
	}
	qv, self, err := s.resolve(q)
	if err != nil {
		return nil, 0, err
	}

	exclude := roaring.New()
	if o.excludeSet {
		for _, w := range o.exclude {
			if r, err := s.vocab.Rank(w); err == nil {
				exclude.Add(uint32(r))
			}
		}
	} else if self >= 0 {
		exclude.Add(uint32(self))
	}

	if candidates == nil {
		if o.candidatesSet {
			ranks := make([]int, len(o.candidates))
			for i, w := range o.candidates {
				if ranks[i], err = s.vocab.Rank(w); err != nil {
					return nil, 0, err
				}
			}
			candidates = slices.Values(ranks)
		} else {
			candidates = func(yield func(int) bool) {
				for r := range s.Len() {
					if !yield(r) {
						return
					}
				}
			}
		}
	}

	// at most Len words can be returned
	k := min(n, s.Len())
	topk := queue.NewTopK(k)
	scanned := 0
	for r := range candidates {
		if exclude.Contains(uint32(r)) {
			continue
		}
		var score float32
		if score, err = s.score(r, qv); err != nil {
			break
		}
		topk.PushItemBounded(queue.PriorityQueueItem{Node: r, Score: score, Seq: scanned}, k)
		scanned++
	}
	if err != nil {
		return nil, scanned, err
	}

	items := topk.Sorted()
	res := make([]Result, len(items))
	for i, it := range items {
		res[i] = Result{Word: s.vocab.Word(it.Node), Rank: it.Node, Similarity: it.Score}
	}
	return res, scanned, nil
}

// score returns the cosine similarity of row r and the unit vector qv.
func (s *Store) score(r int, qv []float32) (float32, error) {
	row := s.vectors.Row(r)
	if s.Normalized() {
		return distance.Dot(row, qv), nil
	}
	norm := distance.Norm(row)
	if norm == 0 {
		return 0, &errs.NumericError{Index: r, Msg: "zero vector"}
	}
	return float32(float64(distance.Dot(row, qv)) / norm), nil
}

// ApproximateNearest returns approximately the n words most similar to q.
//
// Candidates are drawn from a random hyperplane LSH index, built on first
// use and rebuilt when WithBits changes the width, and then re-ranked
// exactly. WithExactEval bounds the number of candidates.
func (s *Store) ApproximateNearest(q Query, n int, optFns ...SearchOption) ([]Result, error) {
	start := time.Now()
	o := applySearchOptions(optFns)
	res, scanned, err := s.approximateNearest(q, n, o)
	s.opts.metricsCollector.RecordSearch(n, scanned, true, time.Since(start), err)
	s.opts.logger.LogSearch(context.Background(), n, scanned, len(res), err)
	return res, err
}

func (s *Store) approximateNearest(q Query, n int, o searchOptions) ([]Result, int, error) {
	if o.exactEval < 0 {
		return nil, 0, errs.Invalid("exact_eval", "must be >= 0, got %g", o.exactEval)
	}
	// counts beyond the vocabulary evaluate every word
	exactEval := int(min(o.exactEval, float64(s.Len())))
	if o.exactEval < 1 {
		exactEval = int(float64(s.Len()) * o.exactEval)
		s.opts.logger.Info("evaluating words exactly", "count", exactEval)
	}

	idx, err := s.lshIndex(o.bits)
	if err != nil {
		return nil, 0, err
	}
	qv, _, err := s.resolve(q)
	if err != nil {
		return nil, 0, err
	}
	sig := idx.Hash(qv)

	var candidates iter.Seq[int]
	switch {
	case exactEval == 0:
		candidates = func(func(int) bool) {}
	case o.neighborhood:
		if candidates, err = idx.Neighbors(sig, 0, exactEval); err != nil {
			return nil, 0, err
		}
	default:
		candidates = bucketCandidates(idx, sig, exactEval)
	}
	return s.nearest(q, n, o, candidates)
}

// bucketCandidates yields the entries of the limit buckets whose signatures
// are most similar to sig, up to limit entries.
func bucketCandidates(idx *lsh.Index[int], sig uint64, limit int) iter.Seq[int] {
	var buckets [][]int
	topk := queue.NewTopK(min(limit, idx.Len()))
	for b, ranks := range idx.Buckets() {
		i := len(buckets)
		buckets = append(buckets, ranks)
		topk.PushItemBounded(queue.PriorityQueueItem{Node: i, Score: float32(idx.HashSimilarity(b, sig)), Seq: i}, limit)
	}
	best := topk.Sorted()

	return func(yield func(int) bool) {
		produced := 0
		for _, it := range best {
			for _, r := range buckets[it.Node] {
				if produced >= limit || !yield(r) {
					return
				}
				produced++
			}
		}
	}
}

// lshBits returns nbits, or max(4, ceil(log2(word_count))) when nbits <= 0.
func (s *Store) lshBits(nbits int) int {
	if nbits > 0 {
		return nbits
	}
	wc := s.cfg.WordCount
	if wc <= 1 {
		return 4
	}
	return max(4, bits.Len(uint(wc-1)))
}

func (s *Store) lshOptions() []lsh.Option {
	if s.opts.seeded {
		return []lsh.Option{lsh.WithSeed(s.opts.seed)}
	}
	return nil
}

func (s *Store) lshIndex(nbits int) (*lsh.Index[int], error) {
	nbits = s.lshBits(nbits)
	if s.index != nil && s.index.Bits() == nbits {
		return s.index, nil
	}
	start := time.Now()
	idx, err := lsh.NewIndex[int](s.Dim(), nbits, s.lshOptions()...)
	if err != nil {
		return nil, err
	}
	for r, row := range s.vectors.Rows() {
		idx.Add(row, r)
	}
	s.opts.metricsCollector.RecordIndexBuild(nbits, idx.Len(), time.Since(start))
	s.opts.logger.LogIndexBuild(context.Background(), nbits, idx.Len(), idx.LoadFactor())
	s.index = idx
	return idx, nil
}

// invalidate drops every cache derived from the vectors.
func (s *Store) invalidate() {
	s.w2v = nil
	s.index = nil
	s.signer = nil
	s.sigs = nil
}

// Normalize scales every vector to unit length. It is irreversible and
// idempotent. A zero vector fails with *NumericError and leaves the store
// unchanged.
func (s *Store) Normalize() (*Store, error) {
	if s.Normalized() {
		return s, nil
	}
	s.invalidate()
	if err := s.vectors.Normalize(); err != nil {
		return s, err
	}
	return s, nil
}

// FilterByRank keeps only the r most frequent words. It is irreversible.
func (s *Store) FilterByRank(r int) (*Store, error) {
	if r < 0 {
		return s, errs.Invalid("rank", "must be >= 0, got %d", r)
	}
	if r >= s.cfg.WordCount {
		return s, nil
	}
	s.invalidate()
	if err := s.vocab.Shrink(r); err != nil {
		return s, err
	}
	if err := s.vectors.Shrink(r); err != nil {
		return s, err
	}
	s.cfg.WordCount = r

	if need := vectorBytes(s.cfg); need < s.reserved {
		s.opts.resource.ReleaseMemory(s.reserved - need)
		s.reserved = need
	}
	return s, nil
}
