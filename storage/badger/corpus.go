package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
)

// CorpusStore implements storage.CorpusStore for BadgerDB.
//
// Records live under position keys and the revision counter under its own
// key. Save writes the changed record keys and bumps the counter in a single
// transaction. A corpus that does not track changes is written in full.
type CorpusStore struct {
	backend     *Backend
	ownsBackend bool
}

var _ storage.CorpusStore = (*CorpusStore)(nil)

// NewCorpusStore creates a CorpusStore on an open backend.
// The caller keeps ownership of the backend.
func NewCorpusStore(backend *Backend) *CorpusStore {
	return &CorpusStore{backend: backend}
}

// Open opens (or creates) a badger corpus store at path.
func Open(path string) (storage.CorpusStore, error) {
	return OpenWithLogger(path, slog.Default())
}

// OpenWithLogger is Open with badger's internal logging routed to logger.
func OpenWithLogger(path string, logger *slog.Logger) (storage.CorpusStore, error) {
	backend, err := OpenBackendWithLogger(path, false, logger)
	if err != nil {
		return nil, storage.Wrap(err, "open badger store")
	}
	store := NewCorpusStore(backend)
	store.ownsBackend = true
	return store, nil
}

// Close closes the backend if the store opened it.
func (s *CorpusStore) Close() error {
	if !s.ownsBackend || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

// Load reads all records in position order.
func (s *CorpusStore) Load(ctx context.Context) (*core.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap(err, "load")
	}
	if s.backend.IsClosed() {
		return nil, storage.Wrap(storage.ErrStorageClosed, "load")
	}

	corpus := &core.Corpus{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		rev, err := readRevision(tx)
		if err != nil {
			return err
		}
		corpus.Revision = rev

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(corpusRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			position, ok := positionFromKey(item.Key())
			if !ok {
				continue
			}
			if position != len(corpus.Records) {
				return fmt.Errorf("%w: record at position %d, expected %d",
					storage.ErrSerializationFailed, position, len(corpus.Records))
			}

			var record *core.Record
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			corpus.Records = append(corpus.Records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, storage.Wrap(err, "load")
	}
	return corpus, nil
}

// Save persists the corpus if the stored revision is still corpus.Revision.
// Only touched positions are written when the corpus tracks changes, so a
// single save is bounded by the size of the change and not of the corpus.
func (s *CorpusStore) Save(ctx context.Context, corpus *core.Corpus) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap(err, "save")
	}
	if s.backend.IsClosed() {
		return storage.Wrap(storage.ErrStorageClosed, "save")
	}

	var next uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		current, err := readRevision(tx)
		if err != nil {
			return err
		}
		if current != corpus.Revision {
			return storage.ErrRevisionMismatch
		}

		// Drop positions beyond the new length. Positions inside it are overwritten.
		stale, err := staleKeys(tx, len(corpus.Records))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		for _, i := range dirtyPositions(corpus) {
			if err := tx.Set(makeRecordKey(i), storage.MarshalRecord(corpus.Records[i])); err != nil {
				return err
			}
		}

		next = current + 1
		if err := tx.Set([]byte(corpusRevisionKey), storage.MarshalUint64(next)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		err = storage.ErrRevisionMismatch
	}
	if err != nil {
		return storage.Wrap(err, "save")
	}
	corpus.Revision = next
	corpus.Untrack()
	return nil
}

// dirtyPositions lists the positions Save must write: the touched ones when
// the corpus tracks changes, every position otherwise.
func dirtyPositions(corpus *core.Corpus) []int {
	touched, tracked := corpus.Touched()
	if !tracked {
		all := make([]int, len(corpus.Records))
		for i := range all {
			all[i] = i
		}
		return all
	}
	positions := touched[:0]
	for _, p := range touched {
		if p >= 0 && p < len(corpus.Records) {
			positions = append(positions, p)
		}
	}
	return positions
}

func readRevision(tx *badger.Txn) (uint64, error) {
	item, err := tx.Get([]byte(corpusRevisionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var rev uint64
	err = item.Value(func(val []byte) error {
		rev, err = storage.UnmarshalUint64(val)
		return err
	})
	return rev, err
}

// staleKeys lists record keys at positions >= length.
func staleKeys(tx *badger.Txn, length int) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(corpusRecordPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Seek(makeRecordKey(length)); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
