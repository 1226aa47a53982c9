// Package reembed recomputes the embeddings of stored records.
//
// By default only stale records are processed: records with no embedding
// (legacy CSV imports) or whose received text no longer matches the
// fingerprint the embedding was computed from. With Config.All every record
// is re-embedded, which is required after switching embedding models.
//
// Batches are embedded concurrently on an ants worker pool, each with retry
// and exponential backoff. Nothing is written until every batch has been
// embedded, so a failed embedding run leaves the corpus unchanged. The
// results are then stored in write batches of the record store.
package reembed
