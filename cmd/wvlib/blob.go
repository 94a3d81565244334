package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/wvgo"
	"github.com/hupe1980/wvgo/blobstore"
	"github.com/hupe1980/wvgo/blobstore/minio"
	"github.com/hupe1980/wvgo/blobstore/s3"
)

// blobLocation is a container stored under prefix in an object store
// bucket, written as minio://bucket/prefix or s3://bucket/prefix.
type blobLocation struct {
	scheme string
	bucket string
	prefix string
}

// parseBlobLocation reports whether path names a container in an object
// store rather than a local file.
func parseBlobLocation(path string) (blobLocation, bool, error) {
	scheme, rest, ok := strings.Cut(path, "://")
	if !ok || (scheme != "minio" && scheme != "s3") {
		return blobLocation{}, false, nil
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	prefix = strings.Trim(prefix, "/")
	if bucket == "" || prefix == "" {
		return blobLocation{}, true, fmt.Errorf("%s: expected %s://BUCKET/PREFIX", path, scheme)
	}
	return blobLocation{scheme: scheme, bucket: bucket, prefix: prefix}, true, nil
}

// blobStore connects to the bucket of loc using the minio-* or s3-*
// settings.
func (a *app) blobStore(loc blobLocation) (blobstore.BlobStore, error) {
	if loc.scheme == "minio" {
		opts := []minio.Option{
			minio.WithSecure(a.v.GetBool("minio-secure")),
			minio.WithRegion(a.v.GetString("minio-region")),
		}
		if key := a.v.GetString("minio-access-key"); key != "" {
			opts = append(opts, minio.WithStaticCredentials(key, a.v.GetString("minio-secret-key")))
		}
		store, err := minio.New(a.v.GetString("minio-endpoint"), loc.bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	var opts []s3.Option
	if region := a.v.GetString("s3-region"); region != "" {
		opts = append(opts, s3.WithRegion(region))
	}
	if endpoint := a.v.GetString("s3-endpoint"); endpoint != "" {
		opts = append(opts, s3.WithEndpoint(endpoint))
	}
	store, err := s3.New(a.ctx, loc.bucket, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) loadBlob(loc blobLocation, format wvgo.Format, opts []wvgo.Option) (*wvgo.Store, error) {
	if format != "" && format != wvgo.FormatWVLib {
		return nil, fmt.Errorf("object store input must be a %s container, got %s", wvgo.FormatWVLib, format)
	}
	store, err := a.blobStore(loc)
	if err != nil {
		return nil, err
	}
	return wvgo.LoadBlob(a.ctx, store, loc.prefix, opts...)
}

func (a *app) saveBlob(s *wvgo.Store, loc blobLocation, opts []wvgo.SaveOption) error {
	if name := a.v.GetString("output-format"); name != "" && name != string(wvgo.FormatWVLib) {
		return fmt.Errorf("object store output must be a %s container, got %s", wvgo.FormatWVLib, name)
	}
	store, err := a.blobStore(loc)
	if err != nil {
		return err
	}
	return s.SaveBlob(a.ctx, store, loc.prefix, opts...)
}
