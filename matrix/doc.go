// Package matrix stores the dense vectors of a word vector set as one
// contiguous row-major float32 slice, row i belonging to vocabulary rank i.
//
// Two serializations are supported for the container format: the NumPy
// ".npy" array format (VectorFormatNPY) and tab-separated values
// (VectorFormatTSV). Both readers accept a row limit and stop reading once
// it is reached, so only the requested prefix of a large file is
// materialized.
package matrix
