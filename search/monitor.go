package search

import "github.com/poiesic/ledgerfind/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryUnderstanding(parsed *core.Query)
	AfterVectorSearch(matches []*core.VectorMatch)
	AfterTextSearch(matches []*core.TextMatch)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterQueryUnderstanding(_ *core.Query)  {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.VectorMatch) {}
func (n *noopMonitor) AfterTextSearch(_ []*core.TextMatch)    {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)          {}
