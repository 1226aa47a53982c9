// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package respostas

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/ai"
	"github.com/poiesic/respostas/ai/openai"
	"github.com/poiesic/respostas/config"
	"github.com/poiesic/respostas/records"
	"github.com/poiesic/respostas/reembed"
	"github.com/poiesic/respostas/search"
	"github.com/poiesic/respostas/storage"
	"github.com/poiesic/respostas/storage/badger"
	"github.com/poiesic/respostas/storage/csvfile"
)

// Database wires the corpus store, embedder, record store and access gate
// described by a config.Config.
type Database struct {
	config   *config.Config
	corpus   storage.CorpusStore
	embedder ai.Embedder
	records  *records.Store
	gate     *access.Gate
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithEmbedder replaces the OpenAI-compatible embedder built from the config.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithLogger sets the logger handed to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// Open builds a Database from cfg.
func Open(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	gate, err := access.NewGate(cfg.Access.User,
		access.WithLogger(logger),
		access.WithPassword(cfg.Access.Password),
		access.WithPasswordHash(cfg.Access.PasswordHash),
	)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(cfg.AI())
		if err != nil {
			return nil, err
		}
	}

	corpus, err := openCorpus(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	store, err := records.NewStore(corpus, embedder,
		records.WithCacheTTL(cfg.CacheTTL()),
		records.WithLogger(logger),
	)
	if err != nil {
		corpus.Close()
		return nil, err
	}

	logger.Debug("database opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	return &Database{
		config:   cfg,
		corpus:   corpus,
		embedder: embedder,
		records:  store,
		gate:     gate,
		logger:   logger,
	}, nil
}

func openCorpus(cfg config.StorageConfig, logger *slog.Logger) (storage.CorpusStore, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return badger.OpenWithLogger(cfg.Path, logger)
	case config.BackendCSV:
		return csvfile.Open(cfg.Path, csvfile.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close releases the corpus store.
func (db *Database) Close() error {
	if err := db.corpus.Close(); err != nil {
		db.logger.Error("error closing corpus store", "err", err)
		return err
	}
	return nil
}

// Login checks credentials against the configured team login.
func (db *Database) Login(user, password string) (access.Session, error) {
	return db.gate.Login(user, password)
}

// Config returns the configuration the database was opened with.
func (db *Database) Config() *config.Config {
	return db.config
}

// Records returns the record store.
func (db *Database) Records() *records.Store {
	return db.records
}

// Embedder returns the embedder shared by every component.
func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

// NewSearcher creates a searcher over the record store. A configured minimum
// score is applied before opts.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(db.logger)}
	if db.config.Search.MinScore != 0 {
		base = append(base, search.WithMinScore(db.config.Search.MinScore))
	}
	return search.NewSearcher(db.records, db.embedder, append(base, opts...)...)
}

// NewReembedder creates a reembedder over the record store. A nil config uses
// reembed.DefaultConfig with the configured batch size. The caller must call
// Release on the result.
func (db *Database) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if cfg == nil {
		cfg = reembed.DefaultConfig()
		cfg.BatchSize = db.config.Embedding.BatchSize
	}
	return reembed.NewReembedder(db.records, db.embedder, cfg, progress, reembed.WithLogger(db.logger))
}
