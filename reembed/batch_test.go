package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/respostas/ai/mock"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(texts ...string) []records.Entry {
	batch := make([]records.Entry, len(texts))
	for i, text := range texts {
		batch[i] = records.Entry{
			Position: i * 10,
			Record:   &core.Record{Fields: core.Fields{ProcessID: fmt.Sprint(i), ReceivedText: text, ReplyText: "r"}},
		}
	}
	return batch
}

func TestBatchProcessor_Process(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	updates, err := bp.Process(context.Background(), batchOf("alfa", "beta", "gama"))
	require.NoError(t, err)
	require.Len(t, updates, 3)

	for i, u := range updates {
		assert.Equal(t, i*10, u.Position)
		assert.Len(t, u.Embedding, mock.DefaultDimensions)
	}
	assert.Equal(t, core.FingerprintOf("beta"), updates[1].Fingerprint)
	assert.Equal(t, 1, embedder.CallCount(), "one request per batch")
}

func TestBatchProcessor_Empty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	updates, err := bp.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, updates)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestBatchProcessor_RetriesTransientErrors(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("%w: connection refused", core.ErrEmbedding)
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	bp := NewBatchProcessor(embedder, 3, time.Millisecond)
	updates, err := bp.Process(context.Background(), batchOf("alfa", "beta"))
	require.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, 3, attempts)
}

func TestBatchProcessor_GivesUp(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: service down", core.ErrEmbedding)
	}

	bp := NewBatchProcessor(embedder, 2, time.Millisecond)
	_, err := bp.Process(context.Background(), batchOf("alfa"))
	assert.ErrorIs(t, err, core.ErrEmbedding)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestBatchProcessor_DimensionMismatchIsNotRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, core.ErrDimensionMismatch)
	}

	bp := NewBatchProcessor(embedder, 5, time.Millisecond)
	_, err := bp.Process(context.Background(), batchOf("alfa"))
	assert.True(t, errors.Is(err, core.ErrDimensionMismatch))
	assert.Equal(t, 1, embedder.CallCount())
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	bp := NewBatchProcessor(embedder, 1, time.Millisecond)
	_, err := bp.Process(context.Background(), batchOf("alfa", "beta"))
	assert.ErrorIs(t, err, core.ErrEmbedding)
}

func TestBatchProcessor_BlankText(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	_, err := bp.Process(context.Background(), batchOf("alfa", "  "))
	assert.ErrorIs(t, err, core.ErrEmbedding)
	assert.Equal(t, 0, embedder.CallCount())
}
