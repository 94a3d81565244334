// Package container reads and writes the wvlib container format.
//
// A container holds three members:
//
//   - config.json: version, word_count, vector_dim and the vector format
//   - vocab.tsv: one "word<TAB>count" line per word, most frequent first
//   - vectors.npy or vectors.tsv: one row per word in vocabulary order
//
// Members live in a tar archive (optionally gzip, bzip2, zstd or lz4
// compressed), a directory, or under a common prefix in a blob store. All
// three are accessed through the Archive interface.
package container
