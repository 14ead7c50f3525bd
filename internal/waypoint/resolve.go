package waypoint

import "github.com/starford/raido/internal/vault"

// Resolver walks a container's ancestor chain to find the document
// governing its waypoint.
type Resolver struct {
	ren *Renderer
}

// NewResolver creates a resolver sharing the renderer's marker checks.
func NewResolver(ren *Renderer) *Resolver {
	return &Resolver{ren: ren}
}

// Governing returns the nearest container note carrying a flag or begin
// marker, starting at c itself when includeSelf is set and at c's
// parent otherwise. A container without a note is skipped and the walk
// continues upward. A nil result means no waypoint governs this
// branch, which is a normal outcome, not a failure.
func (r *Resolver) Governing(c *vault.Node, includeSelf bool) *vault.Node {
	cur := c
	if !includeSelf {
		cur = c.Parent
	}
	for cur != nil {
		if note := cur.Note(); note != nil && r.ren.HasWaypoint(note) {
			return note
		}
		cur = cur.Parent
	}
	return nil
}
