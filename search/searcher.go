package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/ai"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/rank"
)

const (
	// DefaultTopK is the number of results returned when the caller has no preference.
	DefaultTopK = 3

	// MaxTopK caps the number of results per search.
	MaxTopK = 10
)

// CorpusSource provides a read-only view of the current corpus.
// records.Store implements it.
type CorpusSource interface {
	Snapshot(ctx context.Context, sess access.Session) (*core.Corpus, error)
}

// Searcher provides semantic search over the stored received texts.
type Searcher struct {
	corpus   CorpusSource
	embedder ai.Embedder
	ranker   rank.Ranker
	minScore float32
	useMin   bool
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRanker replaces the default brute-force cosine ranker.
func WithRanker(ranker rank.Ranker) Option {
	return func(s *Searcher) error {
		if ranker == nil {
			return ErrRankerRequired
		}
		s.ranker = ranker
		return nil
	}
}

// WithMinScore drops results scoring below score.
// By default no results are dropped.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		if score < -1 || score > 1 {
			return fmt.Errorf("min score %v outside [-1, 1]", score)
		}
		s.minScore = score
		s.useMin = true
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(corpus CorpusSource, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		corpus:   corpus,
		embedder: embedder,
		ranker:   rank.Cosine{},
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to k records whose received text is most similar to
// query, best first. k is capped at MaxTopK.
func (s *Searcher) Search(ctx context.Context, sess access.Session, query string, k int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, sess, query, k, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, sess access.Session, query string, k int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := sess.Require(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is blank", core.ErrInvalidQuery)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidQuery, k)
	}
	k = min(k, MaxTopK)
	monitor.Start(query, k)

	// 1. Gather the embedded part of the corpus
	corpus, err := s.corpus.Snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	positions := make([]int, 0, corpus.Len())
	vectors := make([][]float32, 0, corpus.Len())
	for i, record := range corpus.Records {
		if len(record.Embedding) == 0 {
			continue
		}
		positions = append(positions, i)
		vectors = append(vectors, record.Embedding)
	}
	monitor.AfterCorpusLoad(corpus.Len(), len(vectors))

	if corpus.Len() == 0 {
		return nil, core.ErrEmptyCorpus
	}
	if skipped := corpus.Len() - len(vectors); skipped > 0 {
		s.logger.Warn("records without embedding skipped; run reembed", "count", skipped)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no record has an embedding", core.ErrEmptyCorpus)
	}

	// 2. Embed the query
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(embedding)

	// 3. Rank
	matches, err := s.ranker.Rank(embedding, vectors, k)
	if err != nil {
		s.logger.Error("error ranking corpus", "err", err)
		return nil, err
	}
	monitor.AfterRank(matches)

	// 4. Map matches back to records
	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if s.useMin && match.Score < s.minScore {
			continue
		}
		position := positions[match.Index]
		results = append(results, &core.SearchResult{
			Position: position,
			Record:   corpus.Records[position].Clone(),
			Score:    match.Score,
		})
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "k", k, "results", len(results))
	return results, nil
}
