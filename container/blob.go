package container

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/hupe1980/wvgo/blobstore"
	"github.com/hupe1980/wvgo/resource"
)

type blobArchive struct {
	ctx    context.Context
	store  blobstore.BlobStore
	prefix string
	rc     *resource.Controller
}

// OpenBlob exposes the blobs below prefix as an archive. Reads are throttled
// by rc when it is non-nil.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, prefix string, rc *resource.Controller) Archive {
	return &blobArchive{ctx: ctx, store: store, prefix: strings.TrimSuffix(prefix, "/"), rc: rc}
}

func blobName(prefix, member string) string {
	if prefix == "" {
		return member
	}
	return prefix + "/" + member
}

func (b *blobArchive) Members() ([]string, error) {
	listPrefix := blobName(b.prefix, "")
	names, err := b.store.List(b.ctx, listPrefix)
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(names))
	for _, n := range names {
		members = append(members, strings.TrimPrefix(n, listPrefix))
	}
	return members, nil
}

type blobReader struct {
	io.ReadCloser
	blob blobstore.Blob
}

func (r *blobReader) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.blob.Close())
}

func (b *blobArchive) Open(name string) (io.ReadCloser, error) {
	blob, err := b.store.Open(b.ctx, blobName(b.prefix, name))
	if err != nil {
		return nil, err
	}
	rc, err := blobstore.Reader(b.ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return &blobReader{ReadCloser: resource.NewRateLimitedReadCloser(b.ctx, rc, b.rc), blob: blob}, nil
}

func (b *blobArchive) Close() error { return nil }
