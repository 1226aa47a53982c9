package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvUser                = "RESPOSTAS_USER"
	EnvPassword            = "RESPOSTAS_PASSWORD"
	EnvPasswordHash        = "RESPOSTAS_PASSWORD_HASH"
	EnvStore               = "RESPOSTAS_STORE"
	EnvPath                = "RESPOSTAS_PATH"
	EnvEmbeddingHost       = "RESPOSTAS_EMBEDDING_HOST"
	EnvEmbeddingModel      = "RESPOSTAS_EMBEDDING_MODEL"
	EnvEmbeddingToken      = "RESPOSTAS_EMBEDDING_TOKEN"
	EnvEmbeddingDimensions = "RESPOSTAS_EMBEDDING_DIMENSIONS"
	EnvEmbeddingTimeout    = "RESPOSTAS_EMBEDDING_TIMEOUT"
	EnvCacheTTL            = "RESPOSTAS_CACHE_TTL"
	EnvTopK                = "RESPOSTAS_TOP_K"
)

// LookupFunc reports the value of an environment variable. os.LookupEnv
// satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile copies variables from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

// ApplyEnv overrides configuration values with the variables lookup reports.
// Empty values are ignored. Secrets are taken verbatim; other values are
// trimmed and ignored when blank.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	secrets := map[string]*string{
		EnvPassword:       &c.Access.Password,
		EnvPasswordHash:   &c.Access.PasswordHash,
		EnvEmbeddingToken: &c.Embedding.Token,
	}
	for key, target := range secrets {
		if value, ok := lookup(key); ok && value != "" {
			*target = value
		}
	}

	texts := map[string]*string{
		EnvUser:           &c.Access.User,
		EnvStore:          &c.Storage.Backend,
		EnvPath:           &c.Storage.Path,
		EnvEmbeddingHost:  &c.Embedding.Host,
		EnvEmbeddingModel: &c.Embedding.Model,
	}
	for key, target := range texts {
		if value, ok := get(key); ok {
			*target = value
		}
	}

	ints := map[string]*int{
		EnvEmbeddingDimensions: &c.Embedding.Dimensions,
		EnvTopK:                &c.Search.TopK,
	}
	for key, target := range ints {
		value, ok := get(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*target = n
	}

	durations := map[string]*Duration{
		EnvEmbeddingTimeout: &c.Embedding.Timeout,
		EnvCacheTTL:         &c.Cache.TTL,
	}
	for key, target := range durations {
		value, ok := get(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*target = Duration(d)
	}
	return nil
}
