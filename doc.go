// Package wvgo stores word vectors and answers similarity and
// nearest-neighbor queries over them.
//
// A Store holds a frequency-ordered vocabulary, one dense vector per word
// and the metadata describing them. Queries are either exact (a scan with
// a bounded top-k heap) or approximate (candidates from a random hyperplane
// LSH index, re-ranked exactly).
//
// # Quick Start
//
//	wv, _ := wvgo.Load("text8.tar.gz")
//	wv, _ = wv.Normalize()
//	res, _ := wv.Nearest(wvgo.WordQuery("paris"), 10)
//	for _, r := range res {
//	    fmt.Println(r.Word, r.Similarity)
//	}
//
// # Formats
//
// Load and Save dispatch on a Format, given explicitly or guessed from the
// file name:
//
//	wvlib   directory or tar archive (.tar, .tgz, .tar.gz, .tar.bz2, .tar.zst, .tar.lz4)
//	w2vbin  word2vec binary (.bin)
//	w2vtxt  word2vec text (.txt, detected from the contents)
//	w2v     word2vec, text or binary detected from the contents
//	sdv     space-delimited values (.sdv, .tsv)
//	cid     word to cluster id, loaded as one-hot vectors (.classes)
//
// Containers can also live in object storage:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("vectors/"))
//	_ = wv.SaveBlob(ctx, s3Store, "text8")
//	wv, _ = wvgo.LoadBlob(ctx, s3Store, "text8")
//
// # Approximate Search
//
//	res, _ := wv.ApproximateNearest(wvgo.WordQuery("paris"), 10,
//	    wvgo.WithExactEval(0.05), wvgo.WithBits(16))
//
// The index is built on first use and rebuilt when the bit width changes.
// Normalize and FilterByRank drop it along with the other caches.
//
// # Errors
//
// Failures are typed: *FormatError for malformed input, *LookupError for
// unknown words, *ValidationError for bad parameters, *NotImplementedError
// for unsupported formats and *NumericError for zero vectors. Match them
// with errors.Is against ErrFormat, ErrLookup, ErrValidation,
// ErrNotImplemented and ErrNumeric.
//
// A Store is not safe for concurrent use.
package wvgo
