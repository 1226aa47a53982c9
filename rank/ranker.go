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


package rank

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/respostas/core"
)

// Ranker orders corpus rows by similarity to a query.
type Ranker interface {
	// Rank scores every row of corpus against query and returns the best
	// min(k, len(corpus)) matches, highest score first, ties broken by
	// ascending row index.
	// Returns core.ErrEmptyCorpus when corpus has no rows and
	// core.ErrInvalidQuery when k < 1.
	Rank(query []float32, corpus [][]float32, k int) ([]core.Match, error)
}

// Cosine is a brute-force Ranker using cosine similarity.
type Cosine struct{}

var _ Ranker = Cosine{}

// Rank implements Ranker in O(N·D).
func (Cosine) Rank(query []float32, corpus [][]float32, k int) ([]core.Match, error) {
	if len(corpus) == 0 {
		return nil, core.ErrEmptyCorpus
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidQuery, k)
	}

	qm := magnitude(query)
	matches := make([]core.Match, len(corpus))
	for i, row := range corpus {
		if len(row) != len(query) {
			return nil, fmt.Errorf("%w: row %d has dimension %d, query has %d",
				core.ErrDimensionMismatch, i, len(row), len(query))
		}
		var score float64
		if rm := magnitude(row); qm != 0 && rm != 0 {
			score = dot(query, row) / (qm * rm)
		}
		if math.IsNaN(score) {
			score = 0
		}
		matches[i] = core.Match{Index: i, Score: float32(score)}
	}

	slices.SortStableFunc(matches, compareMatches)

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// compareMatches orders by score descending, then index ascending.
func compareMatches(a, b core.Match) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	return a.Index - b.Index
}

// CosineSimilarity returns dot(a, b) / (|a| |b|), or 0 when either vector has
// zero magnitude. Vectors of different lengths yield core.ErrDimensionMismatch.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", core.ErrDimensionMismatch, len(a), len(b))
	}
	am, bm := magnitude(a), magnitude(b)
	if am == 0 || bm == 0 {
		return 0, nil
	}
	return float32(dot(a, b) / (am * bm)), nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
