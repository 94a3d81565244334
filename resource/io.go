package resource

import (
	"context"
	"io"
)

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, rc: rc}
}

func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

// Read charges the limiter for the bytes actually read.
func (r *RateLimitedReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if n > 0 {
		if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// ReadCloser is a RateLimitedReader that closes the wrapped reader.
type ReadCloser struct {
	*RateLimitedReader
	c io.Closer
}

// NewRateLimitedReadCloser wraps rc so reads are throttled by ctl.
// A nil ctl returns rc unchanged.
func NewRateLimitedReadCloser(ctx context.Context, rc io.ReadCloser, ctl *Controller) io.ReadCloser {
	if ctl == nil {
		return rc
	}
	return &ReadCloser{RateLimitedReader: NewRateLimitedReader(ctx, rc, ctl), c: rc}
}

// Close closes the wrapped reader.
func (r *ReadCloser) Close() error { return r.c.Close() }
