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


// Package records is the record store: the ordered corpus of received
// documents and their institutional replies, each with the embedding of its
// received text.
//
// The corpus is cached in memory and reloaded from the storage.CorpusStore
// when the cache expires or is invalidated. Mutations are serialized: each
// one reloads the corpus, applies the change to that copy, saves it, and only
// then replaces the cache. A failed mutation leaves both the stored corpus
// and the cache unchanged. Each mutation marks the positions it changes so
// the store writes only those. Import and ApplyEmbeddings split large inputs
// into several mutations of at most the write batch size.
//
// Every operation takes an access.Session and fails with core.ErrUnauthorized
// unless the session is authorized.
//
// Records are identified by their 0-based position in insertion order.
// Records are never deleted, so positions are stable.
package records
