package wvgo

import (
	"log/slog"

	"github.com/hupe1980/wvgo/codec"
	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	seed             int64
	seeded           bool
	maxRank          int
	maxRankSet       bool
	format           Format
	resource         *resource.Controller
}

// Option configures Store construction and loading.
type Option func(*options)

// WithCodec configures the codec used for config.json.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &wvgo.BasicMetricsCollector{}
//	wv, _ := wvgo.Load("vectors.bin", wvgo.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := wvgo.NewJSONLogger(slog.LevelInfo)
//	wv, _ := wvgo.Load("text8.tar.gz", wvgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSeed makes LSH hyperplanes reproducible. Without it every index
// build draws a random seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithMaxRank loads only the r most frequent words. r must be at least 1.
func WithMaxRank(r int) Option {
	return func(o *options) {
		o.maxRank = r
		o.maxRankSet = true
	}
}

// WithFormat overrides format detection on load.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithResourceController reserves vector memory from rc for the lifetime of
// the store and throttles blob reads. Release the reservation with Close.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type saveOptions struct {
	format       Format
	vectorFormat config.VectorFormat
}

// SaveOption configures Save and SaveBlob.
type SaveOption func(*saveOptions)

// WithOutputFormat overrides format detection on save.
func WithOutputFormat(f Format) SaveOption {
	return func(o *saveOptions) {
		o.format = f
	}
}

// WithVectorFormat stores container vectors as f instead of the format
// recorded in the store config. The store config is not changed.
func WithVectorFormat(f config.VectorFormat) SaveOption {
	return func(o *saveOptions) {
		o.vectorFormat = f
	}
}

func applySaveOptions(optFns []SaveOption) saveOptions {
	var o saveOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// DefaultExactEval is the fraction of the vocabulary evaluated exactly by
// ApproximateNearest.
const DefaultExactEval = 0.1

type searchOptions struct {
	exclude       []string
	excludeSet    bool
	candidates    []string
	candidatesSet bool
	exactEval     float64
	bits          int
	neighborhood  bool
}

// SearchOption configures Nearest and ApproximateNearest.
type SearchOption func(*searchOptions)

// WithExclude drops the given words from the results. It replaces the
// default of excluding the query word, so WithExclude() with no words
// allows the query word itself to be returned.
func WithExclude(words ...string) SearchOption {
	return func(o *searchOptions) {
		o.exclude = words
		o.excludeSet = true
	}
}

// WithCandidates restricts Nearest to the given words, scanned in order.
func WithCandidates(words ...string) SearchOption {
	return func(o *searchOptions) {
		o.candidates = words
		o.candidatesSet = true
	}
}

// WithExactEval sets how many LSH candidates ApproximateNearest re-ranks
// exactly: a value in (0, 1) is a fraction of the vocabulary, a value of
// 1 or more is a word count.
func WithExactEval(v float64) SearchOption {
	return func(o *searchOptions) {
		o.exactEval = v
	}
}

// WithExactEvalCount re-ranks up to n LSH candidates exactly.
func WithExactEvalCount(n int) SearchOption {
	return func(o *searchOptions) {
		o.exactEval = float64(n)
	}
}

// WithBits sets the LSH signature width. Changing it rebuilds the index.
func WithBits(bits int) SearchOption {
	return func(o *searchOptions) {
		o.bits = bits
	}
}

// WithHashNeighborhood selects the candidate strategy of ApproximateNearest.
// true (the default) walks the Hamming ball around the query signature,
// which suits load factors near 1. false ranks all buckets by signature
// similarity, which suits sparse indexes.
func WithHashNeighborhood(enabled bool) SearchOption {
	return func(o *searchOptions) {
		o.neighborhood = enabled
	}
}

func applySearchOptions(optFns []SearchOption) searchOptions {
	o := searchOptions{
		exactEval:    DefaultExactEval,
		neighborhood: true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
