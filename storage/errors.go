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


package storage

import (
	"errors"
	"fmt"

	"github.com/poiesic/respostas/core"
)

var (
	// ErrRevisionMismatch indicates the stored corpus was modified after it was loaded.
	ErrRevisionMismatch = fmt.Errorf("%w: %w", core.ErrPersistence, core.ErrConflict)

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)

// Wrap tags err as a persistence failure unless it already is one.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", core.ErrPersistence, op, err)
}
