package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
)

// Column names.
const (
	ColumnProcessID      = "processo_sei"
	ColumnDocumentType   = "tipo_documento"
	ColumnDocumentNumber = "numero_documento"
	ColumnAuthorship     = "autoria"
	ColumnReceivedText   = "texto_pergunta"
	ColumnReplyText      = "texto_resposta"
	ColumnEmbedding      = "embedding_pergunta"
)

// Header is the column order written by WriteRecords.
var Header = []string{
	ColumnProcessID,
	ColumnDocumentType,
	ColumnDocumentNumber,
	ColumnAuthorship,
	ColumnReceivedText,
	ColumnReplyText,
	ColumnEmbedding,
}

var requiredColumns = []string{ColumnProcessID, ColumnReceivedText, ColumnReplyText}

// ReadRecords parses CSV rows into records. An empty input yields no records.
func ReadRecords(r io.Reader) ([]*core.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", storage.ErrSerializationFailed, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", storage.ErrSerializationFailed, name)
		}
	}

	var records []*core.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		record := &core.Record{
			Fields: core.Fields{
				ProcessID:      cell(ColumnProcessID),
				DocumentType:   core.DocumentType(cell(ColumnDocumentType)),
				DocumentNumber: cell(ColumnDocumentNumber),
				Authorship:     cell(ColumnAuthorship),
				ReceivedText:   cell(ColumnReceivedText),
				ReplyText:      cell(ColumnReplyText),
			},
		}
		line, _ := reader.FieldPos(0)
		embedding, err := ParseEmbedding(cell(ColumnEmbedding))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", storage.ErrSerializationFailed, line, err)
		}
		if len(embedding) > 0 {
			record.Embedding = embedding
			record.Fingerprint = core.FingerprintOf(record.ReceivedText)
		}
		records = append(records, record)
	}
	return records, nil
}

// WriteRecords writes the header and one row per record.
func WriteRecords(w io.Writer, records []*core.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ProcessID,
			string(r.DocumentType),
			r.DocumentNumber,
			r.Authorship,
			r.ReceivedText,
			r.ReplyText,
			FormatEmbedding(r.Embedding),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatEmbedding renders a vector as "[v0, v1, ...]". A nil vector renders
// as the empty string.
func FormatEmbedding(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(v) * 12)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseEmbedding parses the output of FormatEmbedding. Blank input and "[]"
// yield a nil vector.
func ParseEmbedding(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("embedding %q is not a bracketed list", truncate(s))
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}

	parts := strings.Split(body, ",")
	v := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("embedding component %d: %w", i, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func truncate(s string) string {
	const limit = 32
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
