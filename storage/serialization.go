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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/respostas/core"
)

// recordFormatV1 prefixes every encoded record.
const recordFormatV1 byte = 1

// MarshalUint64 serializes a counter to bytes.
func MarshalUint64(v uint64) []byte {
	buf := make([]byte, varint.Uint64.Size(v))
	varint.Uint64.Marshal(v, buf)
	return buf
}

// UnmarshalUint64 deserializes a counter from bytes.
func UnmarshalUint64(data []byte) (uint64, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return v, nil
}

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *core.Record) []byte {
	buf := make([]byte, recordSize(record))
	buf[0] = recordFormatV1
	n := 1
	for _, s := range recordStrings(record) {
		n += ord.String.Marshal(s, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(record.Embedding)), buf[n:])
	for _, f := range record.Embedding {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(record.Fingerprint), buf[n:])
	n += varint.Int64.Marshal(timeToMicros(record.InsertedAt), buf[n:])
	varint.Int64.Marshal(timeToMicros(record.UpdatedAt), buf[n:])
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	if data[0] != recordFormatV1 {
		return nil, fmt.Errorf("%w: unknown record format %d", ErrSerializationFailed, data[0])
	}
	d := decoder{data: data, pos: 1}

	record := &core.Record{}
	record.ProcessID = d.string()
	record.DocumentType = core.DocumentType(d.string())
	record.DocumentNumber = d.string()
	record.Authorship = d.string()
	record.ReceivedText = d.string()
	record.ReplyText = d.string()

	dim := d.uint64()
	if d.err == nil && dim > uint64(len(data)-d.pos)/4 {
		return nil, ErrTruncatedData
	}
	if dim > 0 {
		record.Embedding = make([]float32, dim)
		for i := range record.Embedding {
			record.Embedding[i] = d.float32()
		}
	}
	record.Fingerprint = core.Fingerprint(d.uint64())
	record.InsertedAt = microsToTime(d.int64())
	record.UpdatedAt = microsToTime(d.int64())

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return record, nil
}

func recordStrings(r *core.Record) []string {
	return []string{
		r.ProcessID,
		string(r.DocumentType),
		r.DocumentNumber,
		r.Authorship,
		r.ReceivedText,
		r.ReplyText,
	}
}

func recordSize(r *core.Record) int {
	size := 1
	for _, s := range recordStrings(r) {
		size += ord.String.Size(s)
	}
	size += varint.Uint64.Size(uint64(len(r.Embedding)))
	for _, f := range r.Embedding {
		size += raw.Float32.Size(f)
	}
	size += varint.Uint64.Size(uint64(r.Fingerprint))
	size += varint.Int64.Size(timeToMicros(r.InsertedAt))
	size += varint.Int64.Size(timeToMicros(r.UpdatedAt))
	return size
}

// decoder reads consecutive values and keeps the first error.
type decoder struct {
	data []byte
	pos  int
	err  error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.pos:])
	d.pos += n
	d.err = err
	return v
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data[d.pos:])
	d.pos += n
	d.err = err
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.data[d.pos:])
	d.pos += n
	d.err = err
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.data[d.pos:])
	d.pos += n
	d.err = err
	return v
}

// Zero times are stored as 0 so they survive the round trip.
func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
