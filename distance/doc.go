// Package distance provides the vector arithmetic behind similarity queries.
//
// # Usage
//
//	sim := distance.Dot(a, b)              // cosine similarity of unit vectors
//	sim, ok := distance.Cosine(a, b)       // cosine similarity of arbitrary vectors
//	ok := distance.NormalizeL2InPlace(vec) // false for zero vectors
package distance
