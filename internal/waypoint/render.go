package waypoint

import (
	"strings"

	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/vault"
)

// Renderer builds the nested bullet-list text for a container. It is
// pure string work except for the container-note marker checks, which
// go through the provider's cached read path.
type Renderer struct {
	store   storage.Provider
	markers Markers
}

// NewRenderer creates a renderer over the given provider and markers.
func NewRenderer(store storage.Provider, markers Markers) *Renderer {
	return &Renderer{store: store, markers: markers}
}

// HasWaypoint reports whether doc carries a flag or begin marker. Read
// failures (e.g. the note vanished mid-pass) count as no marker.
func (r *Renderer) HasWaypoint(doc *vault.Node) bool {
	if doc == nil {
		return false
	}
	data, err := r.store.ReadCached(doc.Path)
	if err != nil {
		return false
	}
	return r.markers.Present(data)
}

// Render produces the bullet tree for c's contents at the given depth
// (one tab per level). topLevel marks the container owning the waypoint
// being rebuilt: it is always expanded, even when its own note carries
// a marker.
//
// A non-top-level container whose note carries a marker is self-indexed
// and collapses to a single bold link; its contents belong to its own
// waypoint, not this one.
func (r *Renderer) Render(c *vault.Node, depth int, topLevel bool) (string, error) {
	indent := strings.Repeat("\t", depth)
	note := c.Note()

	if !topLevel && r.HasWaypoint(note) {
		return indent + "- **[[" + note.BaseName() + "]]**", nil
	}

	bullet := indent + "- **" + c.Name + "**"
	if !topLevel && note != nil {
		bullet = indent + "- **[[" + note.BaseName() + "]]**"
	}

	lines := []string{bullet}
	for _, child := range c.SortedChildren() {
		switch child.Kind {
		case vault.KindDocument:
			// The container's own note is represented by the container
			// bullet; listing it would have the host note link itself.
			if child == note {
				continue
			}
			lines = append(lines, indent+"\t- [["+child.BaseName()+"]]")
		case vault.KindContainer:
			sub, err := r.Render(child, depth+1, false)
			if err != nil {
				return "", err
			}
			if sub != "" {
				lines = append(lines, sub)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
