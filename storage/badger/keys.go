package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	corpusRecordPrefix = "correc:"
	corpusRevisionKey  = "correv"
)

// makeRecordKey generates the key for the record at a corpus position.
// Format: prefix:position
func makeRecordKey(position int) []byte {
	buf := make([]byte, len(corpusRecordPrefix)+8)
	offset := copy(buf, corpusRecordPrefix)
	// Write in BigEndian order so lexicographic sort matches insertion order
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// positionFromKey extracts the corpus position from a record key.
func positionFromKey(key []byte) (int, bool) {
	if len(key) != len(corpusRecordPrefix)+8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(key[len(corpusRecordPrefix):])), true
}
