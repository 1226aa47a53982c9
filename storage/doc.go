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


// Package storage provides the persistence abstraction for the corpus.
//
// A CorpusStore reads and overwrites the whole corpus. Two implementations
// exist:
//
//   - storage/badger: embedded key-value store, records encoded with mus-go
//   - storage/csvfile: the flat respostas.csv layout
//
// # Constructor Return Type Pattern
//
// Public Open functions return the storage.CorpusStore interface:
//
//	store, err := badger.Open("/path/to/db")  // returns storage.CorpusStore
//
// Constructors used by tests and by the facade to share a backend may return
// concrete types.
//
// # Optimistic Concurrency
//
// Load stamps the corpus with the stored revision. Save refuses to write if
// the stored revision moved in the meantime and returns ErrRevisionMismatch,
// which matches both core.ErrPersistence and core.ErrConflict:
//
//	corpus, err := store.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	corpus.Records = append(corpus.Records, record)
//	if err := store.Save(ctx, corpus); errors.Is(err, core.ErrConflict) {
//	    // reload and retry
//	}
//
// # Thread Safety
//
// All implementations must be safe for concurrent use by multiple goroutines.
//
// # Context Support
//
// Load and Save honour context cancellation before touching storage.
package storage
