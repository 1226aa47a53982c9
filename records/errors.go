package records

import "errors"

var (
	// ErrStoreRequired indicates a nil corpus store was provided.
	ErrStoreRequired = errors.New("corpus store is required")

	// ErrEmbedderRequired indicates a nil embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")
)
