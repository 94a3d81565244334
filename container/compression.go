package container

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression of a tar archive.
type Compression uint8

const (
	// CompressionNone is a plain tar stream.
	CompressionNone Compression = iota
	// CompressionGzip is gzip (.tar.gz, .tgz).
	CompressionGzip
	// CompressionBzip2 is bzip2 (.tar.bz2, .tbz2).
	CompressionBzip2
	// CompressionZstd is zstandard (.tar.zst, .tzst).
	CompressionZstd
	// CompressionLZ4 is the lz4 frame format (.tar.lz4).
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var tarSuffixes = []struct {
	suffix string
	c      Compression
}{
	{".tar.gz", CompressionGzip},
	{".tgz", CompressionGzip},
	{".tar.bz2", CompressionBzip2},
	{".tbz2", CompressionBzip2},
	{".tar.zst", CompressionZstd},
	{".tzst", CompressionZstd},
	{".tar.lz4", CompressionLZ4},
	{".tar", CompressionNone},
}

// TarCompression returns the compression implied by a tar file name.
// ok is false when name does not name a tar archive.
func TarCompression(name string) (c Compression, ok bool) {
	lower := strings.ToLower(name)
	for _, s := range tarSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.c, true
		}
	}
	return CompressionNone, false
}

var magics = []struct {
	magic []byte
	c     Compression
}{
	{[]byte{0x1f, 0x8b}, CompressionGzip},
	{[]byte("BZh"), CompressionBzip2},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, CompressionZstd},
	{[]byte{0x04, 0x22, 0x4d, 0x18}, CompressionLZ4},
}

// Sniff detects the compression of br from its leading magic bytes without
// consuming them.
func Sniff(br *bufio.Reader) Compression {
	head, _ := br.Peek(4)
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.c
		}
	}
	return CompressionNone
}

// Decompress wraps r in a decompressor for c.
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionBzip2:
		return bzip2.NewReader(r, nil)
	case CompressionZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// Compress wraps w in a compressor for c. Closing the result flushes the
// compressed stream but leaves w open.
func Compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionBzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
