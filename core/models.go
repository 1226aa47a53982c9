package core

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint identifies the text an embedding was computed from.
// A zero Fingerprint marks an embedding that was never computed.
type Fingerprint uint64

// FingerprintOf hashes text with BLAKE2b into a 64-bit fingerprint.
// Identical text always produces the same fingerprint.
func FingerprintOf(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// DocumentType classifies the incoming correspondence.
type DocumentType string

const (
	DocumentTypeOficio       DocumentType = "Ofício"
	DocumentTypeRequerimento DocumentType = "Requerimento de Informação"
	DocumentTypeIndicacao    DocumentType = "Indicação"
	DocumentTypeOutro        DocumentType = "Outro"
)

// DocumentTypes lists the valid document types in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeOficio,
	DocumentTypeRequerimento,
	DocumentTypeIndicacao,
	DocumentTypeOutro,
}

var documentTypeSlugs = map[string]DocumentType{
	"oficio":       DocumentTypeOficio,
	"requerimento": DocumentTypeRequerimento,
	"indicacao":    DocumentTypeIndicacao,
	"outro":        DocumentTypeOutro,
}

// ParseDocumentType resolves a label or ASCII slug to a DocumentType.
// Labels match case-insensitively. An empty string yields the empty type.
func ParseDocumentType(s string) (DocumentType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, dt := range DocumentTypes {
		if strings.EqualFold(s, string(dt)) {
			return dt, nil
		}
	}
	if dt, ok := documentTypeSlugs[strings.ToLower(s)]; ok {
		return dt, nil
	}
	return "", ErrInvalidDocumentType
}

// Fields holds the user-editable columns of a record.
type Fields struct {
	ProcessID      string       // SEI process number
	DocumentType   DocumentType // Kind of incoming document
	DocumentNumber string
	Authorship     string // e.g. "Dep. Federal João Silva - PT/SP"
	ReceivedText   string // Text of the incoming document
	ReplyText      string // Text of the institutional reply
}

// Record is a question/answer pair with the embedding of its received text.
type Record struct {
	Fields
	Embedding   []float32   // Embedding of ReceivedText
	Fingerprint Fingerprint // Fingerprint of the ReceivedText the embedding was computed from
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// Stale reports whether the embedding no longer reflects ReceivedText.
func (r *Record) Stale() bool {
	return len(r.Embedding) == 0 || r.Fingerprint != FingerprintOf(r.ReceivedText)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Embedding = slices.Clone(r.Embedding)
	return &c
}

// Corpus is the ordered collection of records.
// Position in Records is the record's identity.
type Corpus struct {
	Records []*Record

	// Revision is an opaque token set by the store on load and checked on save.
	Revision uint64

	// touched holds the positions changed since Track was called.
	// nil means changes are not tracked and the whole corpus is written.
	touched map[int]struct{}
}

// Track starts recording changed positions. Stores that persist records
// individually then write only the touched positions.
func (c *Corpus) Track() {
	c.touched = make(map[int]struct{})
}

// Touch marks positions as changed. It starts tracking if needed.
func (c *Corpus) Touch(positions ...int) {
	if c.touched == nil {
		c.Track()
	}
	for _, p := range positions {
		c.touched[p] = struct{}{}
	}
}

// Touched returns the changed positions in ascending order. tracked is false
// when no tracking was started, meaning every position must be written.
func (c *Corpus) Touched() (positions []int, tracked bool) {
	if c.touched == nil {
		return nil, false
	}
	positions = make([]int, 0, len(c.touched))
	for p := range c.touched {
		positions = append(positions, p)
	}
	slices.Sort(positions)
	return positions, true
}

// Untrack drops the recorded changes after they have been persisted.
func (c *Corpus) Untrack() {
	c.touched = nil
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// Clone returns a deep copy of the corpus.
func (c *Corpus) Clone() *Corpus {
	out := &Corpus{
		Records:  make([]*Record, len(c.Records)),
		Revision: c.Revision,
	}
	for i, r := range c.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// Embeddings returns the embedding matrix in corpus order.
// Rows share memory with the records.
func (c *Corpus) Embeddings() [][]float32 {
	m := make([][]float32, len(c.Records))
	for i, r := range c.Records {
		m[i] = r.Embedding
	}
	return m
}

// Match is a ranked corpus row.
type Match struct {
	Index int
	Score float32
}

// SearchResult represents a search result with the full record and relevance score.
type SearchResult struct {
	Position int
	Record   *Record
	Score    float32
}
