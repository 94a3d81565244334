// Package lsh implements random-hyperplane locality sensitive hashing
// (Charikar 2002) for cosine similarity.
//
// A Hasher maps a vector to one bit per hyperplane: 1 when the vector lies
// on the positive side. The Hamming distance between two signatures
// estimates the angle between the vectors, so cos(π·hd/bits) approximates
// their cosine similarity.
//
// An Index buckets values by signature and enumerates buckets outward from
// a query signature in order of increasing Hamming distance. That search is
// efficient when the load factor (entries / 2^bits) is close to 1 and
// degrades toward an exhaustive scan as it drops.
package lsh
