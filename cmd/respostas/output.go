package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/records"
	"github.com/poiesic/respostas/search"
)

const snippetLength = 60

func printResults(w io.Writer, query string, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "Nenhum resultado acima da similaridade mínima.")
		return
	}

	fmt.Fprintln(w, "Resultados mais semelhantes:")
	for i, result := range results {
		r := result.Record
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#%d (posição %d)\n", i+1, result.Position)
		fmt.Fprintf(w, "Processo SEI: %s\n", r.ProcessID)
		fmt.Fprintf(w, "Tipo: %s\n", orDash(string(r.DocumentType)))
		fmt.Fprintf(w, "Autoria: %s\n", orDash(r.Authorship))
		fmt.Fprintf(w, "Similaridade: %.2f\n", result.Score)
		if terms := search.SharedTerms(r.ReceivedText, query); len(terms) > 0 {
			fmt.Fprintf(w, "Termos em comum: %s\n", strings.Join(terms, ", "))
		}
		fmt.Fprintf(w, "Documento recebido:\n%s\n", r.ReceivedText)
		fmt.Fprintf(w, "Resposta enviada:\n%s\n", r.ReplyText)
		fmt.Fprintln(w, "---")
	}
}

func printEntries(w io.Writer, entries []records.Entry, full bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nenhum registro encontrado.")
		return
	}
	for _, e := range entries {
		if full {
			printRecord(w, e.Position, e.Record)
			fmt.Fprintln(w, "---")
			continue
		}
		fmt.Fprintf(w, "%4d  %-24s  %-28s  %s\n",
			e.Position, e.Record.ProcessID, orDash(string(e.Record.DocumentType)), snippet(e.Record.ReceivedText))
	}
	fmt.Fprintf(w, "%d registro(s).\n", len(entries))
}

func printRecord(w io.Writer, position int, r *core.Record) {
	fmt.Fprintf(w, "Posição: %d\n", position)
	fmt.Fprintf(w, "Processo SEI: %s\n", r.ProcessID)
	fmt.Fprintf(w, "Tipo: %s\n", orDash(string(r.DocumentType)))
	fmt.Fprintf(w, "Número: %s\n", orDash(r.DocumentNumber))
	fmt.Fprintf(w, "Autoria: %s\n", orDash(r.Authorship))
	if !r.InsertedAt.IsZero() {
		fmt.Fprintf(w, "Cadastrado em: %s\n", r.InsertedAt.Local().Format("02/01/2006 15:04"))
	}
	if r.Stale() {
		fmt.Fprintln(w, "Embedding: desatualizado (execute reembed)")
	}
	fmt.Fprintf(w, "Documento recebido:\n%s\n", r.ReceivedText)
	fmt.Fprintf(w, "Resposta enviada:\n%s\n", r.ReplyText)
}

// snippet returns the first line of text, shortened to snippetLength runes.
func snippet(text string) string {
	text, _, _ = strings.Cut(strings.TrimSpace(text), "\n")
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
