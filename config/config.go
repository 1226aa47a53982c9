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


package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/respostas/ai"
)

const (
	// DefaultFile is read when no config path is given. It may be absent.
	DefaultFile = "respostas.toml"

	// DefaultEnvFile is read for environment overrides. It may be absent.
	DefaultEnvFile = ".env"

	// BackendBadger stores the corpus in an embedded badger database.
	BackendBadger = "badger"

	// BackendCSV stores the corpus in a single CSV file.
	BackendCSV = "csv"
)

// Duration is a time.Duration written as a string ("30s", "5m") in TOML.
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the complete application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Cache     CacheConfig     `toml:"cache"`
	Access    AccessConfig    `toml:"access"`
	Search    SearchConfig    `toml:"search"`
}

// StorageConfig selects where the corpus lives.
type StorageConfig struct {
	// Backend is BackendBadger or BackendCSV.
	Backend string `toml:"backend"`
	// Path is the badger directory or the CSV file.
	Path string `toml:"path"`
}

// EmbeddingConfig describes the embedding service.
type EmbeddingConfig struct {
	Host       string   `toml:"host"`
	Model      string   `toml:"model"`
	Token      string   `toml:"token,omitempty"`
	Dimensions int      `toml:"dimensions"`
	Timeout    Duration `toml:"timeout"`
	BatchSize  int      `toml:"batch_size"`
}

// CacheConfig controls the in-memory corpus cache.
type CacheConfig struct {
	// TTL is how long a loaded corpus is reused. Zero disables caching.
	TTL Duration `toml:"ttl"`
}

// AccessConfig holds the shared credential.
// Only one of Password and PasswordHash is needed; the hash wins.
type AccessConfig struct {
	User         string `toml:"user"`
	Password     string `toml:"password,omitempty"`
	PasswordHash string `toml:"password_hash,omitempty"`
}

// SearchConfig holds retrieval defaults.
type SearchConfig struct {
	TopK     int     `toml:"top_k"`
	MinScore float32 `toml:"min_score,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	embedding := ai.DefaultConfig()
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    "./respostas-db",
		},
		Embedding: EmbeddingConfig{
			Host:       embedding.EmbeddingHost,
			Model:      embedding.EmbeddingModel,
			Dimensions: embedding.Dimensions,
			Timeout:    Duration(embedding.Timeout),
			BatchSize:  embedding.BatchSize,
		},
		Cache: CacheConfig{
			TTL: Duration(5 * time.Minute),
		},
		Access: AccessConfig{
			User: "DPL",
		},
		Search: SearchConfig{
			TopK: 3,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment. An empty path reads DefaultFile if it exists; a non-empty path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	required := path != ""
	if !required {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path, required); err != nil {
		return nil, err
	}

	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := c.decode(data); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) decode(data []byte) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(c)
}

// Encode renders the configuration as TOML. Secrets are left out.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	redacted.Access.Password = ""
	redacted.Embedding.Token = ""
	return toml.Marshal(redacted)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendCSV:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("config: storage path is required")
	}
	if c.Cache.TTL < 0 {
		return errors.New("config: cache ttl cannot be negative")
	}
	if strings.TrimSpace(c.Access.User) == "" {
		return errors.New("config: access user is required")
	}
	if c.Search.TopK < 1 {
		return errors.New("config: search top_k must be at least 1")
	}
	if c.Search.MinScore < -1 || c.Search.MinScore > 1 {
		return errors.New("config: search min_score must be within [-1, 1]")
	}
	return c.AI().Validate()
}

// AI converts the embedding section to an ai.Config.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
		ai.WithDimensions(c.Embedding.Dimensions),
		ai.WithTimeout(time.Duration(c.Embedding.Timeout)),
		ai.WithBatchSize(c.Embedding.BatchSize),
	)
}

// CacheTTL returns the cache TTL as a time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL)
}
