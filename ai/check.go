package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/respostas/core"
)

// CheckInput rejects texts the model cannot embed meaningfully.
func CheckInput(texts ...string) error {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: text %d is empty", core.ErrEmbedding, i)
		}
	}
	return nil
}

// CheckOutput verifies an embedding batch: one vector per input, each of the
// expected dimension. dim <= 0 only requires all vectors to share a length.
func CheckOutput(vectors [][]float32, count, dim int) error {
	if len(vectors) != count {
		return fmt.Errorf("%w: expected %d embeddings, received %d", core.ErrEmbedding, count, len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: embedding %d is empty", core.ErrEmbedding, i)
		}
		want := dim
		if want <= 0 {
			want = len(vectors[0])
		}
		if len(v) != want {
			return fmt.Errorf("%w: %w: embedding %d has dimension %d, expected %d",
				core.ErrEmbedding, core.ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}
