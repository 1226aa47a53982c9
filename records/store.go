package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/ai"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
)

const (
	// DefaultCacheTTL is how long a loaded corpus is served from memory.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultWriteBatch is the most records Import and ApplyEmbeddings
	// persist in one save.
	DefaultWriteBatch = 500

	corpusCacheKey = "corpus"
)

// Entry is a record together with its position in the corpus.
type Entry struct {
	Position int
	Record   *core.Record
}

// EmbeddingUpdate carries a recomputed embedding for the record at Position.
// Fingerprint identifies the received text the embedding was computed from.
type EmbeddingUpdate struct {
	Position    int
	Fingerprint core.Fingerprint
	Embedding   []float32
}

// Store is the record store.
type Store struct {
	corpus   storage.CorpusStore
	embedder ai.Embedder
	cache    *cache.Cache
	ttl      time.Duration
	batch    int
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes mutations.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store) error

// WithCacheTTL sets how long the corpus stays cached. Zero disables caching.
// Default is DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) error {
		if ttl < 0 {
			return fmt.Errorf("cache TTL cannot be negative: %s", ttl)
		}
		s.ttl = ttl
		return nil
	}
}

// WithWriteBatch sets how many records Import and ApplyEmbeddings persist in
// one save. Default is DefaultWriteBatch.
func WithWriteBatch(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			return fmt.Errorf("write batch must be at least 1, got %d", size)
		}
		s.batch = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock sets the time source used for InsertedAt and UpdatedAt.
// Stored timestamps have microsecond precision.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// NewStore creates a record store over a corpus store and an embedder.
func NewStore(corpus storage.CorpusStore, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if corpus == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		corpus:   corpus,
		embedder: embedder,
		ttl:      DefaultCacheTTL,
		batch:    DefaultWriteBatch,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.ttl > 0 {
		s.cache = cache.New(s.ttl, 2*s.ttl)
	}
	s.logger = s.logger.With("component", "records")
	return s, nil
}

// Append validates fields, embeds the received text and appends the record to
// the end of the corpus. It returns the stored record.
func (s *Store) Append(ctx context.Context, sess access.Session, fields core.Fields) (*core.Record, error) {
	entry, err := s.AppendEntry(ctx, sess, fields)
	if err != nil {
		return nil, err
	}
	return entry.Record, nil
}

// AppendEntry is Append returning the position the record was stored at.
func (s *Store) AppendEntry(ctx context.Context, sess access.Session, fields core.Fields) (Entry, error) {
	if err := sess.Require(); err != nil {
		return Entry{}, err
	}
	if err := core.ValidateFields(&fields); err != nil {
		return Entry{}, err
	}

	embedding, err := s.embedder.EmbedText(ctx, fields.ReceivedText)
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	record := &core.Record{
		Fields:      fields,
		Embedding:   embedding,
		Fingerprint: core.FingerprintOf(fields.ReceivedText),
		InsertedAt:  now,
		UpdatedAt:   now,
	}

	var position int
	err = s.mutate(ctx, func(c *core.Corpus) error {
		position = len(c.Records)
		c.Records = append(c.Records, record)
		c.Touch(position)
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	s.logger.Info("record appended", "position", position, "process", fields.ProcessID)
	return Entry{Position: position, Record: record.Clone()}, nil
}

// Import appends records in order. Records whose embedding is missing or
// does not match their received text are embedded before anything is saved.
// Timestamps are preserved when set. The records are saved in chunks of the
// write batch size; on a save error the records of earlier chunks stay
// stored and their count is returned with the error.
func (s *Store) Import(ctx context.Context, sess access.Session, records []*core.Record) (int, error) {
	if err := sess.Require(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	batch := make([]*core.Record, len(records))
	var staleIdx []int
	var staleTexts []string
	for i, r := range records {
		if err := core.ValidateRecord(r); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		batch[i] = r.Clone()
		if batch[i].Stale() {
			staleIdx = append(staleIdx, i)
			staleTexts = append(staleTexts, r.ReceivedText)
		}
	}

	if len(staleTexts) > 0 {
		vectors, err := s.embedder.EmbedTexts(ctx, staleTexts)
		if err != nil {
			return 0, err
		}
		for j, i := range staleIdx {
			batch[i].Embedding = vectors[j]
			batch[i].Fingerprint = core.FingerprintOf(batch[i].ReceivedText)
		}
	}

	now := s.now()
	for _, r := range batch {
		if r.InsertedAt.IsZero() {
			r.InsertedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.InsertedAt
		}
	}

	imported := 0
	for chunk := range slices.Chunk(batch, s.batch) {
		err := s.mutate(ctx, func(c *core.Corpus) error {
			first := len(c.Records)
			c.Records = append(c.Records, chunk...)
			for i := range chunk {
				c.Touch(first + i)
			}
			return nil
		})
		if err != nil {
			return imported, err
		}
		imported += len(chunk)
	}

	s.logger.Info("records imported", "count", imported, "embedded", len(staleIdx))
	return imported, nil
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context, sess access.Session) ([]*core.Record, error) {
	c, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Record, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Get returns the record at position.
func (s *Store) Get(ctx context.Context, sess access.Session, position int) (*core.Record, error) {
	c, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= len(c.Records) {
		return nil, notFound(position, len(c.Records))
	}
	return c.Records[position].Clone(), nil
}

// Update replaces every field of the record at position. If the received
// text changed, the record is re-embedded.
func (s *Store) Update(ctx context.Context, sess access.Session, position int, fields core.Fields) (*core.Record, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := core.ValidateFields(&fields); err != nil {
		return nil, err
	}

	var updated *core.Record
	err := s.mutate(ctx, func(c *core.Corpus) error {
		if position < 0 || position >= len(c.Records) {
			return notFound(position, len(c.Records))
		}

		record := c.Records[position].Clone()
		fingerprint := core.FingerprintOf(fields.ReceivedText)
		if fingerprint != record.Fingerprint || len(record.Embedding) == 0 {
			embedding, err := s.embedder.EmbedText(ctx, fields.ReceivedText)
			if err != nil {
				return err
			}
			record.Embedding = embedding
			record.Fingerprint = fingerprint
			s.logger.Debug("received text changed, re-embedded", "position", position)
		}
		record.Fields = fields
		record.UpdatedAt = s.now()

		c.Records[position] = record
		c.Touch(position)
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("record updated", "position", position, "process", fields.ProcessID)
	return updated.Clone(), nil
}

// ApplyEmbeddings stores recomputed embeddings, one save per write batch. An
// update is skipped if the record's received text no longer matches its
// Fingerprint. It returns the number of records changed, including those of
// chunks saved before an error.
func (s *Store) ApplyEmbeddings(ctx context.Context, sess access.Session, updates []EmbeddingUpdate) (int, error) {
	if err := sess.Require(); err != nil {
		return 0, err
	}

	total := 0
	for chunk := range slices.Chunk(updates, s.batch) {
		applied, err := s.applyEmbeddings(ctx, chunk)
		total += applied
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Store) applyEmbeddings(ctx context.Context, updates []EmbeddingUpdate) (int, error) {
	applied := 0
	err := s.mutate(ctx, func(c *core.Corpus) error {
		applied = 0
		for _, u := range updates {
			if u.Position < 0 || u.Position >= len(c.Records) {
				return notFound(u.Position, len(c.Records))
			}
			if len(u.Embedding) == 0 {
				return fmt.Errorf("%w: empty embedding for position %d", core.ErrEmbedding, u.Position)
			}
			record := c.Records[u.Position]
			if core.FingerprintOf(record.ReceivedText) != u.Fingerprint {
				s.logger.Warn("record changed since embedding was computed, skipping", "position", u.Position)
				continue
			}
			record = record.Clone()
			record.Embedding = u.Embedding
			record.Fingerprint = u.Fingerprint
			c.Records[u.Position] = record
			c.Touch(u.Position)
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// Filter returns the entries having term as a case-insensitive substring of
// any textual field. Only an empty term matches every record; whitespace in
// term is significant.
func (s *Store) Filter(ctx context.Context, sess access.Session, term string) ([]Entry, error) {
	c, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	entries := make([]Entry, 0, len(c.Records))
	for i, r := range c.Records {
		if needle == "" || matches(r, needle) {
			entries = append(entries, Entry{Position: i, Record: r.Clone()})
		}
	}
	return entries, nil
}

// FilterText is Filter without positions.
func (s *Store) FilterText(ctx context.Context, sess access.Session, term string) ([]*core.Record, error) {
	entries, err := s.Filter(ctx, sess, term)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out, nil
}

// Len returns the number of records.
func (s *Store) Len(ctx context.Context, sess access.Session) (int, error) {
	c, err := s.snapshot(ctx, sess)
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}

// Embeddings returns the embedding matrix in corpus order. The rows are
// shared with the cache and must not be modified.
func (s *Store) Embeddings(ctx context.Context, sess access.Session) ([][]float32, error) {
	c, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.Embeddings(), nil
}

// Snapshot returns the current corpus. It is shared with the cache and must
// be treated as read-only.
func (s *Store) Snapshot(ctx context.Context, sess access.Session) (*core.Corpus, error) {
	return s.snapshot(ctx, sess)
}

// Invalidate drops the cached corpus so the next read reloads it.
func (s *Store) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(corpusCacheKey)
	}
}

func (s *Store) snapshot(ctx context.Context, sess access.Session) (*core.Corpus, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if c, ok := s.cached(); ok {
		return c, nil
	}

	c, err := s.corpus.Load(ctx)
	if err != nil {
		s.logger.Error("error loading corpus", "err", err)
		return nil, err
	}
	s.store(c)
	s.logger.Debug("corpus loaded", "records", c.Len(), "revision", c.Revision)
	return c, nil
}

// mutate reloads the corpus, applies fn and saves. fn must Touch every
// position it changes or appends; a mutation touching nothing is not saved.
// The cache is replaced only after a successful save and dropped on a
// revision conflict.
func (s *Store) mutate(ctx context.Context, fn func(*core.Corpus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.corpus.Load(ctx)
	if err != nil {
		s.logger.Error("error loading corpus", "err", err)
		return err
	}
	loaded := len(c.Records)
	c.Track()
	if err := fn(c); err != nil {
		return err
	}
	if touched, _ := c.Touched(); len(touched) == 0 && len(c.Records) == loaded {
		c.Untrack()
		s.store(c)
		return nil
	}
	if err := s.corpus.Save(ctx, c); err != nil {
		if errors.Is(err, core.ErrConflict) {
			s.Invalidate()
		}
		s.logger.Error("error saving corpus", "err", err)
		return err
	}
	s.store(c)
	return nil
}

func (s *Store) cached() (*core.Corpus, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(corpusCacheKey)
	if !ok {
		return nil, false
	}
	return v.(*core.Corpus), true
}

func (s *Store) store(c *core.Corpus) {
	if s.cache != nil {
		s.cache.Set(corpusCacheKey, c, cache.DefaultExpiration)
	}
}

func matches(r *core.Record, needle string) bool {
	for _, field := range []string{
		r.ProcessID,
		string(r.DocumentType),
		r.DocumentNumber,
		r.Authorship,
		r.ReceivedText,
		r.ReplyText,
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func notFound(position, length int) error {
	return fmt.Errorf("%w: position %d (corpus has %d records)", core.ErrNotFound, position, length)
}
