package rank

import (
	"math/rand"
	"testing"

	"github.com/poiesic/respostas/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMatrix(r *rand.Rand, n, dim int) [][]float32 {
	m := make([][]float32, n)
	for i := range m {
		m[i] = make([]float32, dim)
		for j := range m[i] {
			m[i][j] = r.Float32()*2 - 1
		}
	}
	return m
}

func TestCosine_LengthAndOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	corpus := randomMatrix(r, 25, 16)
	query := randomMatrix(r, 1, 16)[0]

	for _, k := range []int{1, 3, 10, 25, 100} {
		matches, err := Cosine{}.Rank(query, corpus, k)
		require.NoError(t, err)

		want := k
		if want > len(corpus) {
			want = len(corpus)
		}
		assert.Len(t, matches, want, "k=%d", k)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestCosine_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	corpus := randomMatrix(r, 50, 8)
	query := randomMatrix(r, 1, 8)[0]

	first, err := Cosine{}.Rank(query, corpus, 10)
	require.NoError(t, err)
	second, err := Cosine{}.Rank(query, corpus, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCosine_TiesBrokenByIndex(t *testing.T) {
	corpus := [][]float32{
		{0, 1},
		{1, 0},
		{0, 2},
		{2, 0},
		{1, 0},
	}

	matches, err := Cosine{}.Rank([]float32{1, 0}, corpus, 5)
	require.NoError(t, err)

	indices := make([]int, len(matches))
	for i, m := range matches {
		indices[i] = m.Index
	}
	assert.Equal(t, []int{1, 3, 4, 0, 2}, indices)
}

func TestCosine_FewerRowsThanK(t *testing.T) {
	matches, err := Cosine{}.Rank([]float32{1, 0}, [][]float32{{1, 0}, {0, 1}}, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestCosine_ZeroNormScoresZero(t *testing.T) {
	matches, err := Cosine{}.Rank([]float32{1, 1}, [][]float32{{0, 0}, {-1, -1}}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, core.Match{Index: 0, Score: 0}, matches[0])
	assert.Equal(t, 1, matches[1].Index)
	assert.InDelta(t, -1.0, matches[1].Score, 1e-6)

	matches, err = Cosine{}.Rank([]float32{0, 0}, [][]float32{{1, 0}, {0, 1}}, 2)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, float32(0), m.Score)
	}
}

func TestCosine_Errors(t *testing.T) {
	t.Run("empty corpus", func(t *testing.T) {
		_, err := Cosine{}.Rank([]float32{1}, nil, 3)
		assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	})

	t.Run("non-positive k", func(t *testing.T) {
		_, err := Cosine{}.Rank([]float32{1}, [][]float32{{1}}, 0)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := Cosine{}.Rank([]float32{1, 0}, [][]float32{{1, 0}, {1, 0, 0}}, 1)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestCosineSimilarity(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	vectors := randomMatrix(r, 10, 32)

	t.Run("self similarity is one", func(t *testing.T) {
		for _, v := range vectors {
			s, err := CosineSimilarity(v, v)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, s, 1e-5)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		for i := range vectors {
			for j := range vectors {
				ab, err := CosineSimilarity(vectors[i], vectors[j])
				require.NoError(t, err)
				ba, err := CosineSimilarity(vectors[j], vectors[i])
				require.NoError(t, err)
				assert.Equal(t, ab, ba)
			}
		}
	})

	t.Run("zero vector", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})
		require.NoError(t, err)
		assert.Equal(t, float32(0), s)
	})

	t.Run("orthogonal", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{1, 0}, []float32{0, 3})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, s, 1e-6)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}
