// Package rank orders corpus embeddings by similarity to a query vector.
//
// Ranker is the seam for alternative implementations: the brute-force Cosine
// ranker scans every row, which is adequate for a team-sized archive, and an
// approximate-nearest-neighbor index can replace it later without changing
// callers.
package rank
