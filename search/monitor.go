package search

import "github.com/hustings/canvass/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(req Request)
	AfterStatusFilter(completedCount int)
	AfterTextFilter(ids []core.ID)
	AfterFacets(facets []Facet)
	AfterRank(hits []Hit)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)            {}
func (n *noopMonitor) AfterStatusFilter(_ int)    {}
func (n *noopMonitor) AfterTextFilter(_ []core.ID) {}
func (n *noopMonitor) AfterFacets(_ []Facet)      {}
func (n *noopMonitor) AfterRank(_ []Hit)          {}
func (n *noopMonitor) Finish(_ *Response)         {}
