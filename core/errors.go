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


package core

import "errors"

// Retrieval and record store errors.
var (
	// ErrInvalidQuery indicates an empty or whitespace-only query, or a non-positive result count.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyCorpus indicates there are no records to rank against.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrEmbedding indicates the embedding model rejected the input or is unavailable.
	ErrEmbedding = errors.New("embedding failed")

	// ErrNotFound indicates the addressed record position does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence indicates the corpus could not be read or written.
	ErrPersistence = errors.New("persistence failed")

	// ErrConflict indicates the stored corpus changed since it was loaded.
	ErrConflict = errors.New("corpus revision conflict")

	// ErrUnauthorized indicates an operation was attempted without an authorized session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyProcessID indicates the ProcessID field is empty.
	ErrEmptyProcessID = errors.New("process id cannot be empty")

	// ErrEmptyReceivedText indicates the ReceivedText field is empty.
	ErrEmptyReceivedText = errors.New("received text cannot be empty")

	// ErrEmptyReplyText indicates the ReplyText field is empty.
	ErrEmptyReplyText = errors.New("reply text cannot be empty")

	// ErrInvalidDocumentType indicates an unknown DocumentType value.
	ErrInvalidDocumentType = errors.New("invalid document type")
)
