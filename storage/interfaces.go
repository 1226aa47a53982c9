package storage

import (
	"context"

	"github.com/poiesic/respostas/core"
)

// CorpusStore persists the full corpus.
// Implementations must be safe for use by concurrent goroutines; the record
// store above them serializes writers.
type CorpusStore interface {
	// Load reads the whole corpus in insertion order and stamps it with the
	// current stored revision. An empty store yields an empty corpus.
	Load(ctx context.Context) (*core.Corpus, error)

	// Save persists the corpus atomically. It fails with
	// ErrRevisionMismatch if corpus.Revision is not the stored revision, and
	// on success sets corpus.Revision to the new stored revision and clears
	// the corpus change tracking. Stores may write only the positions marked
	// with Corpus.Touch; an untracked corpus is written in full.
	// Nothing is written when Save fails.
	Save(ctx context.Context, corpus *core.Corpus) error

	// Close releases the underlying resources.
	Close() error
}
