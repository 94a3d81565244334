// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("embeddings/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	err = wv.SaveBlob(ctx, store, "text8")
//	wv, err = wvgo.LoadBlob(ctx, store, "text8")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large vector members
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
