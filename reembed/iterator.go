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


package reembed

import (
	"context"

	"github.com/poiesic/respostas/records"
)

const (
	// DefaultBatchSize is the default number of records sent per embedding request
	DefaultBatchSize = 32
)

// BatchIterator splits a list of corpus entries into fixed-size batches.
type BatchIterator struct {
	entries   []records.Entry
	batchSize int
}

// NewBatchIterator creates a new batch iterator.
// batchSize: number of entries per batch (defaults to DefaultBatchSize when <= 0)
func NewBatchIterator(entries []records.Entry, batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &BatchIterator{
		entries:   entries,
		batchSize: batchSize,
	}
}

// Len returns the number of batches.
func (it *BatchIterator) Len() int {
	return (len(it.entries) + it.batchSize - 1) / it.batchSize
}

// ForEach calls fn for each batch in order.
// Iteration stops on first error from fn or when all entries are processed.
// Context cancellation is checked before each batch.
func (it *BatchIterator) ForEach(ctx context.Context, fn func([]records.Entry) error) error {
	for i := 0; i < len(it.entries); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(it.entries))
		if err := fn(it.entries[i:end]); err != nil {
			return err
		}
	}
	return nil
}
