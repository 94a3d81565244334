package wvgo

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/hupe1980/wvgo/blobstore"
	"github.com/hupe1980/wvgo/container"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/sdv"
	"github.com/hupe1980/wvgo/word2vec"
)

type saveFunc func(s *Store, path string, c *container.Contents) error

var savers = map[Format]saveFunc{
	FormatWVLib:   saveContainer,
	FormatW2VBin:  saveVectors(word2vec.WriteBinary),
	FormatW2VText: saveVectors(word2vec.WriteText),
	FormatSDV:     saveVectors(sdv.Write),
}

// Save writes the store to path. The format comes from WithOutputFormat or
// the name of path: an existing directory or a tar suffix selects the
// container format, .bin word2vec binary, .txt word2vec text and .sdv or
// .tsv sdv. Containers at a path without a tar suffix are written as
// directories.
func (s *Store) Save(path string, optFns ...SaveOption) error {
	o := applySaveOptions(optFns)
	start := time.Now()
	format, err := s.save(path, o)
	s.opts.metricsCollector.RecordSave(format, s.Len(), time.Since(start), err)
	s.opts.logger.LogSave(context.Background(), path, format, s.Len(), err)
	return err
}

func (s *Store) save(path string, o saveOptions) (Format, error) {
	format := o.format
	if format == "" {
		var err error
		if format, err = guessOutputFormat(path); err != nil {
			return format, err
		}
	}
	c, err := s.contents(o)
	if err != nil {
		return format, err
	}
	s.opts.logger.Info("saving", "path", path, "format", string(format), "vectors", string(c.Config.Format))

	fn, ok := savers[format]
	if !ok {
		return format, &errs.NotImplementedError{What: "save format " + string(format)}
	}
	return format, fn(s, path, c)
}

// contents returns the container view of the store with the vector format
// overridden by o.
func (s *Store) contents(o saveOptions) (*container.Contents, error) {
	cfg := s.cfg
	if o.vectorFormat != "" {
		if !o.vectorFormat.Valid() {
			return nil, &errs.NotImplementedError{What: "vector format " + string(o.vectorFormat)}
		}
		cfg.Format = o.vectorFormat
	}
	return &container.Contents{Config: cfg, Vocab: s.vocab, Vectors: s.vectors}, nil
}

func saveContainer(s *Store, path string, c *container.Contents) error {
	opts := container.WriteOptions{Codec: s.opts.codec}
	if _, ok := container.TarCompression(path); ok {
		return container.WriteTar(path, c, opts)
	}
	return container.WriteDir(path, c, opts)
}

func saveVectors(write func(io.Writer, []string, *matrix.Matrix) error) saveFunc {
	return func(s *Store, path string, c *container.Contents) (err error) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		bw := bufio.NewWriter(f)
		if err := write(bw, c.Vocab.Words(), c.Vectors); err != nil {
			return err
		}
		return bw.Flush()
	}
}

// SaveBlob uploads the store as a container below prefix. Uploads run in
// parallel within the transfer slots of the resource controller.
func (s *Store) SaveBlob(ctx context.Context, store blobstore.BlobStore, prefix string, optFns ...SaveOption) error {
	o := applySaveOptions(optFns)
	start := time.Now()
	c, err := s.contents(o)
	if err == nil {
		err = container.WriteBlob(ctx, store, prefix, c, container.WriteOptions{
			Codec:    s.opts.codec,
			Resource: s.opts.resource,
		})
	}
	s.opts.metricsCollector.RecordSave(FormatWVLib, s.Len(), time.Since(start), err)
	s.opts.logger.LogSave(ctx, prefix, FormatWVLib, s.Len(), err)
	return err
}
