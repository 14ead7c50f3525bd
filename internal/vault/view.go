package vault

// View is the JSON projection of a subtree served by the API.
type View struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Kind     string  `json:"kind"`
	Waypoint bool    `json:"waypoint,omitempty"`
	Children []*View `json:"children,omitempty"`
}

// BuildView projects the subtree rooted at n. hasWaypoint, when
// non-nil, marks documents that host an active waypoint.
func BuildView(n *Node, hasWaypoint func(*Node) bool) *View {
	name := n.Name
	if n.IsRoot() {
		name = "/"
	}
	v := &View{
		Name: name,
		Path: n.Path,
		Kind: n.Kind.String(),
	}
	if n.Kind == KindDocument && hasWaypoint != nil {
		v.Waypoint = hasWaypoint(n)
	}
	for _, c := range n.SortedChildren() {
		v.Children = append(v.Children, BuildView(c, hasWaypoint))
	}
	return v
}
