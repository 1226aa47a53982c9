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


// Package search finds the stored records whose received text is most
// similar to a new document.
//
// Searcher embeds only the query. Stored embeddings are taken as they are,
// ranked with a rank.Ranker (cosine similarity by default) and mapped back to
// their records and positions:
//
//	searcher, err := search.NewSearcher(store, embedder)
//	results, err := searcher.Search(ctx, sess, "Pedido sobre fiscalização", search.DefaultTopK)
//
// Records without an embedding are skipped until they are re-embedded.
//
// SharedTerms lists the significant words a result has in common with the
// query, for display next to the score.
package search
