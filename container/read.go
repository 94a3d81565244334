package container

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/wvgo/codec"
	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
	"github.com/hupe1980/wvgo/vocab"
)

// Contents is a decoded container.
type Contents struct {
	Config  config.Config
	Vocab   *vocab.Vocabulary
	Vectors *matrix.Matrix
}

// ReadOptions controls Read.
type ReadOptions struct {
	// MaxRank limits the number of words read. 0 reads all.
	MaxRank int
	// Codec decodes config.json. nil selects codec.Default.
	Codec codec.Codec
	// Logger receives warnings about unexpected members.
	Logger *slog.Logger
	// Reserve is called with the effective config before vocab and
	// vectors are read. A non-nil error aborts the read.
	Reserve func(config.Config) error
}

// Read decodes the members of a. Errors in a member carry the member name
// as their source.
func Read(a Archive, opts ReadOptions) (*Contents, error) {
	l, err := Resolve(a, opts.Logger)
	if err != nil {
		return nil, err
	}

	var cfg config.Config
	if err := readMember(a, l.Config, func(r io.Reader) (err error) {
		cfg, err = config.Read(r, opts.Codec)
		return err
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.WithSource(err, l.Config)
	}
	if opts.MaxRank > 0 && opts.MaxRank < cfg.WordCount {
		cfg.WordCount = opts.MaxRank
	}
	if opts.Reserve != nil {
		if err := opts.Reserve(cfg); err != nil {
			return nil, err
		}
	}

	vectorsName, err := l.VectorMember(cfg.Format)
	if err != nil {
		return nil, err
	}

	c := &Contents{Config: cfg}
	if err := readMember(a, l.Vocab, func(r io.Reader) (err error) {
		c.Vocab, err = vocab.Read(r, opts.MaxRank)
		return err
	}); err != nil {
		return nil, err
	}
	if err := readMember(a, vectorsName, func(r io.Reader) (err error) {
		switch cfg.Format {
		case config.TSV:
			c.Vectors, err = matrix.ReadTSV(r, cfg.VectorDim, opts.MaxRank)
		default:
			c.Vectors, err = matrix.ReadNPY(r, opts.MaxRank)
		}
		return err
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func readMember(a Archive, name string, fn func(io.Reader) error) error {
	rc, err := a.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	return errs.WithSource(fn(rc), name)
}
