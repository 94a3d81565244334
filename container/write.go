package container

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/wvgo/blobstore"
	"github.com/hupe1980/wvgo/codec"
	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/resource"
)

// WriteOptions controls the write functions.
type WriteOptions struct {
	// Codec encodes config.json. nil selects codec.Default.
	Codec codec.Codec
	// Compression overrides the compression implied by the tar file name.
	Compression *Compression
	// Resource throttles blob uploads. May be nil.
	Resource *resource.Controller
}

type member struct {
	name string
	size int64
	// write streams exactly size bytes.
	write func(io.Writer) error
}

func members(c *Contents, cd codec.Codec) ([]member, error) {
	if c.Vocab.Len() != c.Vectors.Len() {
		return nil, fmt.Errorf("container: %d words but %d vectors", c.Vocab.Len(), c.Vectors.Len())
	}
	cfg := c.Config
	if !cfg.Format.Valid() {
		cfg.Format = config.NPY
	}
	if cfg.Version == 0 {
		cfg.Version = config.FormatVersion
	}
	cfg.WordCount = c.Vocab.Len()
	cfg.VectorDim = c.Vectors.Dim()

	cfgData, err := cfg.Encode(cd)
	if err != nil {
		return nil, err
	}
	var vocabBuf bytes.Buffer
	if _, err := c.Vocab.WriteTo(&vocabBuf); err != nil {
		return nil, err
	}

	ms := []member{
		bytesMember(ConfigName, cfgData),
		bytesMember(VocabName, vocabBuf.Bytes()),
	}
	switch cfg.Format {
	case config.TSV:
		var buf bytes.Buffer
		if err := c.Vectors.WriteTSV(&buf); err != nil {
			return nil, err
		}
		ms = append(ms, bytesMember(config.TSV.MemberName(), buf.Bytes()))
	default:
		ms = append(ms, member{
			name:  config.NPY.MemberName(),
			size:  c.Vectors.NPYSize(),
			write: c.Vectors.WriteNPY,
		})
	}
	return ms, nil
}

func bytesMember(name string, data []byte) member {
	return member{
		name: name,
		size: int64(len(data)),
		write: func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		},
	}
}

// staleVectors returns the vectors member name of the format not in use.
func staleVectors(ms []member) string {
	if ms[len(ms)-1].name == config.NPY.MemberName() {
		return config.TSV.MemberName()
	}
	return config.NPY.MemberName()
}

// WriteTar writes c as a tar archive at path. Compression follows the file
// name suffix unless opts.Compression is set.
func WriteTar(path string, c *Contents, opts WriteOptions) (err error) {
	ms, err := members(c, opts.Codec)
	if err != nil {
		return err
	}
	comp, _ := TarCompression(path)
	if opts.Compression != nil {
		comp = *opts.Compression
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	cw, err := Compress(f, comp)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)
	now := time.Now()
	for _, m := range ms {
		hdr := &tar.Header{
			Name:     m.name,
			Mode:     0o644,
			Size:     m.size,
			ModTime:  now,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write %s header: %w", m.name, err)
		}
		if err := m.write(tw); err != nil {
			return fmt.Errorf("write %s: %w", m.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

// WriteDir writes c as members of the directory path, creating it if needed.
// A vectors member of the other format is removed.
func WriteDir(path string, c *Contents, opts WriteOptions) error {
	ms, err := members(c, opts.Codec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	for _, m := range ms {
		if err := writeFile(filepath.Join(path, m.name), m); err != nil {
			return err
		}
	}
	if err := os.Remove(filepath.Join(path, staleVectors(ms))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeFile(name string, m member) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := m.write(f); err != nil {
		return fmt.Errorf("write %s: %w", m.name, err)
	}
	return nil
}

// WriteBlob uploads the members of c below prefix in parallel, bounded by
// the transfer slots of opts.Resource.
func WriteBlob(ctx context.Context, store blobstore.BlobStore, prefix string, c *Contents, opts WriteOptions) error {
	ms, err := members(c, opts.Codec)
	if err != nil {
		return err
	}
	prefix = strings.TrimSuffix(prefix, "/")
	rc := opts.Resource
	if rc == nil {
		rc = resource.NewController(resource.Config{})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range ms {
		g.Go(func() error {
			if err := rc.AcquireTransfer(gctx); err != nil {
				return err
			}
			defer rc.ReleaseTransfer()
			return uploadMember(gctx, store, blobName(prefix, m.name), m, rc)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return store.Delete(ctx, blobName(prefix, staleVectors(ms)))
}

func uploadMember(ctx context.Context, store blobstore.BlobStore, name string, m member, rc *resource.Controller) (err error) {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = wb.Close()
		}
	}()
	if err := m.write(resource.NewRateLimitedWriter(ctx, wb, rc)); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return wb.Close()
}
