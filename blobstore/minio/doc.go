// Package minio stores wvlib containers in MinIO or another S3-compatible
// object store through the MinIO client.
//
// Each container member becomes one object below the container prefix.
// Members are tagged with a content type (application/json for config.json,
// text/tab-separated-values for vocab.tsv and TSV vectors) so that a bucket
// browser shows them sensibly.
//
//	store, err := minio.New("localhost:9000", "vectors",
//	    minio.WithStaticCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("models/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.SaveBlob(ctx, store, "text8"); err != nil {
//	    log.Fatal(err)
//	}
//	wv, err := wvgo.LoadBlob(ctx, store, "text8", wvgo.WithMaxRank(50000))
//
// Without WithStaticCredentials the keys come from MINIO_ACCESS_KEY and
// MINIO_SECRET_KEY, then from the AWS_* variables.
//
// The wvlib command reaches the same store through minio://BUCKET/PREFIX
// paths:
//
//	wvlib convert --minio-endpoint localhost:9000 vectors.bin minio://vectors/text8
package minio
