package search

import (
	"github.com/poiesic/respostas/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, k int)
	AfterCorpusLoad(records, embedded int)
	AfterQueryEmbedding(vector []float32)
	AfterRank(matches []core.Match)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int) {}
func (n *noopMonitor) AfterCorpusLoad(_, _ int) {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32) {}
func (n *noopMonitor) AfterRank(_ []core.Match) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
