package csvfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseEmbedding(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"nil", nil, ""},
		{"single", []float32{0.5}, "[0.5]"},
		{"several", []float32{0.1, -0.2, 3}, "[0.1, -0.2, 3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatEmbedding(tt.in)
			assert.Equal(t, tt.want, got)

			parsed, err := ParseEmbedding(got)
			require.NoError(t, err)
			assert.Equal(t, tt.in, parsed)
		})
	}
}

func TestParseEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float32
		wantErr bool
	}{
		{"blank", "   ", nil, false},
		{"empty list", "[]", nil, false},
		{"python repr", "[0.012, -0.5, 1e-05]", []float32{0.012, -0.5, 1e-05}, false},
		{"no spaces", "[1,2]", []float32{1, 2}, false},
		{"no brackets", "1, 2", nil, true},
		{"bad number", "[1, x]", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmbedding(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteReadRecords(t *testing.T) {
	records := []*core.Record{
		{
			Fields: core.Fields{
				ProcessID:      "02070.000123/2025-11",
				DocumentType:   core.DocumentTypeRequerimento,
				DocumentNumber: "RIC 12/2025",
				Authorship:     "Dep. Federal João Silva - PT/SP",
				ReceivedText:   "Pedido, com vírgula e \"aspas\"\nem duas linhas",
				ReplyText:      "Resposta",
			},
			Embedding:   []float32{0.25, -1},
			Fingerprint: core.FingerprintOf("Pedido, com vírgula e \"aspas\"\nem duas linhas"),
		},
		{
			Fields: core.Fields{
				ProcessID:    "2",
				ReceivedText: "sem embedding",
				ReplyText:    "ok",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(Header, ",")+"\n"))

	decoded, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, records[0], decoded[0])

	assert.Equal(t, records[1].Fields, decoded[1].Fields)
	assert.Empty(t, decoded[1].Embedding)
	assert.True(t, decoded[1].Stale())
}

func TestReadRecords_LegacyLayout(t *testing.T) {
	legacy := "processo_sei,tipo_documento,autoria,texto_pergunta,texto_resposta,embedding_pergunta\n" +
		"123,Ofício,Dep. Maria,Pergunta antiga,Resposta antiga,\"[0.1, 0.2, 0.3]\"\n"

	records, err := ReadRecords(strings.NewReader(legacy))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "123", r.ProcessID)
	assert.Equal(t, core.DocumentTypeOficio, r.DocumentType)
	assert.Empty(t, r.DocumentNumber)
	assert.Equal(t, "Dep. Maria", r.Authorship)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, r.Embedding)
	assert.False(t, r.Stale())
}

func TestReadRecords_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		records, err := ReadRecords(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := ReadRecords(strings.NewReader("processo_sei,autoria\n1,x\n"))
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})

	t.Run("bad embedding", func(t *testing.T) {
		in := strings.Join(Header, ",") + "\n1,,,,p,r,not-a-vector\n"
		_, err := ReadRecords(strings.NewReader(in))
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})
}
