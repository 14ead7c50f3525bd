package engine

import "github.com/starford/raido/internal/vault"

// Aggregator collects the containers impacted by change events between
// synchronization flushes. Entries are deduplicated by node identity,
// so a burst of events against one folder coalesces to a single
// rebuild. Not safe for concurrent use; the engine loop owns it.
type Aggregator struct {
	pending map[*vault.Node]struct{}
	order   []*vault.Node
}

// NewAggregator returns an empty pending-change set.
func NewAggregator() *Aggregator {
	return &Aggregator{pending: make(map[*vault.Node]struct{})}
}

// Record adds a container to the pending set. Nil nodes and documents
// are ignored.
func (a *Aggregator) Record(c *vault.Node) {
	if c == nil || c.Kind != vault.KindContainer {
		return
	}
	if _, ok := a.pending[c]; ok {
		return
	}
	a.pending[c] = struct{}{}
	a.order = append(a.order, c)
}

// Len returns the number of pending containers.
func (a *Aggregator) Len() int {
	return len(a.pending)
}

// Drain atomically snapshots and clears the set, returning the drained
// members in arrival order. Draining before dispatch keeps rebuild work
// from mutating the set mid-iteration.
func (a *Aggregator) Drain() []*vault.Node {
	out := a.order
	a.pending = make(map[*vault.Node]struct{})
	a.order = nil
	return out
}
