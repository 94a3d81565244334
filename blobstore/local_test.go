package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"Local":  NewLocalStore(t.TempDir()),
		"Memory": NewMemoryStore(),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("the\t1061396\nof\t593677\n")

			w, err := store.Create(ctx, "text8/vocab.tsv")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)
			require.NoError(t, w.Sync())
			require.NoError(t, w.Close())

			require.NoError(t, store.Put(ctx, "text8/config.json", []byte(`{"version": 1}`)))
			require.NoError(t, store.Put(ctx, "other/config.json", []byte(`{}`)))

			blob, err := store.Open(ctx, "text8/vocab.tsv")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 7)
			n, err = blob.ReadAt(ctx, buf, 4)
			require.NoError(t, err)
			assert.Equal(t, 7, n)
			assert.Equal(t, "1061396", string(buf))

			r, err := Reader(ctx, blob)
			require.NoError(t, err)
			all, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, data, all)

			names, err := store.List(ctx, "text8/")
			require.NoError(t, err)
			assert.Equal(t, []string{"text8/config.json", "text8/vocab.tsv"}, names)

			require.NoError(t, store.Delete(ctx, "text8/vocab.tsv"))
			require.NoError(t, store.Delete(ctx, "text8/vocab.tsv"))
			names, err = store.List(ctx, "text8/")
			require.NoError(t, err)
			assert.Equal(t, []string{"text8/config.json"}, names)

			_, err = store.Open(ctx, "text8/vocab.tsv")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobStore_ReadRange_Boundaries(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("0123456789")
			require.NoError(t, store.Put(ctx, "boundary.bin", data))

			blob, err := store.Open(ctx, "boundary.bin")
			require.NoError(t, err)
			defer blob.Close()

			r, err := blob.ReadRange(ctx, 0, 10)
			require.NoError(t, err)
			content, _ := io.ReadAll(r)
			r.Close()
			assert.True(t, bytes.Equal(data, content))

			// only 2 of the 5 requested bytes exist
			r, err = blob.ReadRange(ctx, 8, 5)
			require.NoError(t, err)
			content, err = io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "89", string(content))
			r.Close()

			r, err = blob.ReadRange(ctx, 10, 5)
			require.NoError(t, err)
			content, err = io.ReadAll(r)
			require.NoError(t, err)
			assert.Empty(t, content)
			r.Close()

			_, err = blob.ReadRange(ctx, 20, 5)
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestLocalStore_CreateIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	w, err := store.Create(ctx, "vectors.npy")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "vectors.npy"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"vectors.npy"}, names)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
