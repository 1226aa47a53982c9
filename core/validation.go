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

import (
	"fmt"
	"strings"
)

// ValidateFields validates user-supplied record fields according to domain rules.
//
// Validation rules:
//   - ProcessID, ReceivedText and ReplyText must not be blank
//   - DocumentType must be empty or one of DocumentTypes
//
// NOT validated:
//   - ProcessID uniqueness (duplicates are allowed)
//   - DocumentNumber and Authorship (free text, may be empty)
func ValidateFields(f *Fields) error {
	if f == nil {
		return fmt.Errorf("%w: fields are nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(f.ProcessID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyProcessID)
	}

	if strings.TrimSpace(f.ReceivedText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyReceivedText)
	}

	if strings.TrimSpace(f.ReplyText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyReplyText)
	}

	if err := ValidateDocumentType(f.DocumentType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return nil
}

// ValidateRecord validates a stored record: its fields plus the embedding invariant.
// A record loaded without an embedding is valid; it is reported as stale instead.
func ValidateRecord(r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	return ValidateFields(&r.Fields)
}

// ValidateDocumentType validates that a DocumentType is empty or a known value.
func ValidateDocumentType(dt DocumentType) error {
	if dt == "" {
		return nil
	}
	for _, known := range DocumentTypes {
		if dt == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidDocumentType, string(dt))
}
