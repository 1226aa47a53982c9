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


package search

import "strings"

// Stop words to filter out when comparing query and document terms
var stopWords = map[string]bool{
	"a": true, "à": true, "ao": true, "aos": true, "as": true, "às": true,
	"com": true, "como": true, "da": true, "das": true, "de": true, "do": true,
	"dos": true, "e": true, "é": true, "em": true, "na": true, "nas": true,
	"no": true, "nos": true, "o": true, "os": true, "ou": true, "para": true,
	"pela": true, "pelo": true, "por": true, "que": true, "se": true, "sem": true,
	"sobre": true, "um": true, "uma": true, "the": true, "of": true, "and": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}«»/"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// SharedTerms returns the query words, minus stop words, that also appear in
// document. Words are lowercased and reported once, in query order.
func SharedTerms(document, query string) []string {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return nil
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	var shared []string
	seen := make(map[string]bool, len(queryWords))
	for _, qWord := range queryWords {
		if docWordSet[qWord] && !seen[qWord] {
			shared = append(shared, qWord)
			seen[qWord] = true
		}
	}
	return shared
}
