package wvgo

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/hupe1980/wvgo/blobstore"
	"github.com/hupe1980/wvgo/cid"
	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/container"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/sdv"
	"github.com/hupe1980/wvgo/vocab"
	"github.com/hupe1980/wvgo/word2vec"
)

type loadFunc func(path string, o options) (*Store, error)

var loaders = map[Format]loadFunc{
	FormatWVLib:   loadContainer,
	FormatW2V:     loadWord2Vec(word2vec.Read),
	FormatW2VText: loadWord2Vec(word2vec.ReadText),
	FormatW2VBin:  loadWord2Vec(word2vec.ReadBinary),
	FormatSDV:     loadSDV,
	FormatCID:     loadCID,
}

// Load reads word vectors from path. The format comes from WithFormat or is
// guessed by GuessFormat. WithMaxRank limits the load to the most frequent
// words without reading the rest of the input.
func Load(path string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	start := time.Now()
	format, s, err := load(path, o)
	words := 0
	if s != nil {
		words = s.Len()
	}
	o.metricsCollector.RecordLoad(format, words, time.Since(start), err)
	o.logger.LogLoad(context.Background(), path, format, words, time.Since(start), err)
	return s, err
}

func load(path string, o options) (Format, *Store, error) {
	if err := checkMaxRank(o); err != nil {
		return o.format, nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return o.format, nil, err
	}
	format := o.format
	if format == "" {
		var err error
		if format, err = GuessFormat(path); err != nil {
			return format, nil, err
		}
	}
	o.logger.Info("loading", "path", path, "format", string(format))

	fn, ok := loaders[format]
	if !ok {
		return format, nil, &errs.NotImplementedError{What: "load format " + string(format)}
	}
	s, err := fn(path, o)
	return format, s, err
}

func checkMaxRank(o options) error {
	if o.maxRankSet && o.maxRank < 1 {
		return errs.Invalid("max_rank", "must be >= 1, got %d", o.maxRank)
	}
	return nil
}

// LoadBlob reads a container stored as blobs below prefix.
func LoadBlob(ctx context.Context, store blobstore.BlobStore, prefix string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	start := time.Now()
	var (
		s   *Store
		err = checkMaxRank(o)
	)
	if err == nil {
		s, err = fromContainer(container.OpenBlob(ctx, store, prefix, o.resource), o)
	}
	words := 0
	if s != nil {
		words = s.Len()
	}
	o.metricsCollector.RecordLoad(FormatWVLib, words, time.Since(start), err)
	o.logger.LogLoad(ctx, prefix, FormatWVLib, words, time.Since(start), err)
	return s, err
}

func loadContainer(path string, o options) (*Store, error) {
	var (
		a   container.Archive
		err error
	)
	if isDir(path) {
		a, err = container.OpenDir(path, o.logger.Logger)
	} else {
		a, err = container.OpenTar(path, o.logger.Logger)
	}
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return fromContainer(a, o)
}

func fromContainer(a container.Archive, o options) (*Store, error) {
	var reserved int64
	c, err := container.Read(a, container.ReadOptions{
		MaxRank: o.maxRank,
		Codec:   o.codec,
		Logger:  o.logger.Logger,
		Reserve: func(cfg config.Config) error {
			if err := o.resource.ReserveMemory(vectorBytes(cfg)); err != nil {
				return err
			}
			reserved = vectorBytes(cfg)
			return nil
		},
	})
	if err != nil {
		o.resource.ReleaseMemory(reserved)
		return nil, err
	}
	return newStore(c.Config, c.Vocab, c.Vectors, o, reserved)
}

func loadWord2Vec(read func(io.Reader, int) (*word2vec.Data, error)) loadFunc {
	return func(path string, o options) (*Store, error) {
		var d *word2vec.Data
		if err := readFile(path, func(r io.Reader) (err error) {
			d, err = read(r, o.maxRank)
			return err
		}); err != nil {
			return nil, err
		}
		return fromVectors(d.Words, d.Vectors, o)
	}
}

func loadSDV(path string, o options) (*Store, error) {
	var (
		words []string
		m     *matrix.Matrix
	)
	if err := readFile(path, func(r io.Reader) (err error) {
		words, m, err = sdv.Read(r, o.maxRank)
		return err
	}); err != nil {
		return nil, err
	}
	return fromVectors(words, m, o)
}

func loadCID(path string, o options) (*Store, error) {
	var (
		words []string
		m     *matrix.Matrix
	)
	if err := readFile(path, func(r io.Reader) (err error) {
		words, m, err = cid.Read(r, o.maxRank, o.logger.Logger)
		return err
	}); err != nil {
		return nil, err
	}
	return fromVectors(words, m, o)
}

func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return errs.WithSource(fn(f), path)
}

// fromVectors builds a store for formats that carry no frequencies.
func fromVectors(words []string, m *matrix.Matrix, o options) (*Store, error) {
	o.logger.Warn("filling in zero frequencies", "words", len(words))
	v, err := vocab.FromWords(words)
	if err != nil {
		return nil, err
	}
	return newStore(config.Default(len(words), m.Dim()), v, m, o, 0)
}
