package csvfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
)

// Store implements storage.CorpusStore on a CSV file.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ storage.CorpusStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open returns a store for the CSV file at path. The file need not exist;
// its directory is created on the first Save.
func Open(path string, opts ...Option) (storage.CorpusStore, error) {
	if path == "" {
		return nil, storage.Wrap(errors.New("path is required"), "open csv store")
	}
	s := &Store{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "csvfile", "path", path)
	return s, nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Load reads the whole file. A missing file is an empty corpus at revision 0.
func (s *Store) Load(ctx context.Context) (*core.Corpus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, storage.Wrap(err, "load")
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &core.Corpus{}, nil
	}
	if err != nil {
		return nil, storage.Wrap(err, "load")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, storage.Wrap(err, "load")
	}
	records, err := ReadRecords(bufio.NewReader(f))
	if err != nil {
		return nil, storage.Wrap(err, "load")
	}
	return &core.Corpus{Records: records, Revision: revisionOf(info)}, nil
}

// Save replaces the file if its modification time still matches corpus.Revision.
// The file is always rewritten in full; change tracking is cleared.
func (s *Store) Save(ctx context.Context, corpus *core.Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return storage.Wrap(err, "save")
	}

	current, err := s.currentRevision()
	if err != nil {
		return storage.Wrap(err, "save")
	}
	if current != corpus.Revision {
		return storage.ErrRevisionMismatch
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return storage.Wrap(err, "save")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return storage.Wrap(err, "save")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	if err := WriteRecords(w, corpus.Records); err != nil {
		tmp.Close()
		return storage.Wrap(err, "save")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return storage.Wrap(err, "save")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storage.Wrap(err, "save")
	}
	if err := tmp.Close(); err != nil {
		return storage.Wrap(err, "save")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return storage.Wrap(err, "save")
	}

	next, err := s.currentRevision()
	if err != nil {
		return storage.Wrap(err, "save")
	}
	if next == current {
		// Same mtime tick as the previous write; move the clock forward so the
		// revision still changes.
		next, err = s.bumpModTime()
		if err != nil {
			return storage.Wrap(err, "save")
		}
	}
	corpus.Revision = next
	corpus.Untrack()
	s.logger.Debug("corpus saved", "records", len(corpus.Records))
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

func (s *Store) currentRevision() (uint64, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return revisionOf(info), nil
}

func (s *Store) bumpModTime() (uint64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	t := info.ModTime().Add(time.Millisecond)
	if err := os.Chtimes(s.path, t, t); err != nil {
		return 0, fmt.Errorf("bump modification time: %w", err)
	}
	return s.currentRevision()
}

func revisionOf(info fs.FileInfo) uint64 {
	return uint64(info.ModTime().UnixNano())
}
