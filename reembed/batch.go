package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/respostas/ai"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/records"
)

// BatchProcessor embeds the received texts of a batch of entries.
type BatchProcessor struct {
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per batch
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process returns one embedding update per entry, in entry order.
// Nothing is written; the caller applies the updates.
func (bp *BatchProcessor) Process(ctx context.Context, batch []records.Entry) ([]records.EmbeddingUpdate, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	// Extract text content
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.Record.ReceivedText
	}
	if err := ai.CheckInput(texts...); err != nil {
		return nil, err
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if errors.Is(err, core.ErrDimensionMismatch) {
			return Permanent(err)
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", core.ErrEmbedding, len(batch), len(embeddings))
	}

	updates := make([]records.EmbeddingUpdate, len(batch))
	for i, entry := range batch {
		updates[i] = records.EmbeddingUpdate{
			Position:    entry.Position,
			Fingerprint: core.FingerprintOf(texts[i]),
			Embedding:   embeddings[i],
		}
	}
	return updates, nil
}
