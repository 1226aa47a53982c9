package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	got := tokenizeAndFilter("Pedido de informação sobre a Fiscalização (ambiental).")
	assert.Equal(t, []string{"pedido", "informação", "fiscalização", "ambiental"}, got)
}

func TestSharedTerms(t *testing.T) {
	tests := []struct {
		name     string
		document string
		query    string
		want     []string
	}{
		{
			name:     "shared words in query order",
			document: "Pedido de informação sobre fiscalização ambiental",
			query:    "Fiscalização ambiental, pedido urgente",
			want:     []string{"fiscalização", "ambiental", "pedido"},
		},
		{
			name:     "stop words ignored",
			document: "Solicitação de dados sobre licenciamento",
			query:    "de sobre a",
			want:     nil,
		},
		{
			name:     "repeated query words reported once",
			document: "licenciamento",
			query:    "licenciamento licenciamento",
			want:     []string{"licenciamento"},
		},
		{
			name:     "nothing in common",
			document: "unidade de conservação",
			query:    "orçamento",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SharedTerms(tt.document, tt.query))
		})
	}
}
