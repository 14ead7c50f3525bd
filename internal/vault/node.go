// Package vault models the folder hierarchy of a Markdown vault as a
// tree of tagged-variant nodes.
package vault

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Kind distinguishes the two node variants.
type Kind int

const (
	// KindDocument is a leaf Markdown file.
	KindDocument Kind = iota
	// KindContainer is a folder holding an ordered list of children.
	KindContainer
)

func (k Kind) String() string {
	if k == KindContainer {
		return "container"
	}
	return "document"
}

// Node is one element of the vault tree. Documents are leaves;
// containers carry children in insertion order. The root container has
// an empty Path and a nil Parent.
type Node struct {
	Kind     Kind
	Name     string // file name with extension, or folder name
	Path     string // vault-relative slash path; "" for the root
	Parent   *Node
	Children []*Node
}

// IsRoot reports whether n is the vault root container.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// BaseName returns the name without a trailing .md extension.
func (n *Node) BaseName() string {
	return strings.TrimSuffix(n.Name, ".md")
}

// Note returns the container note of n: the document child whose base
// name equals the container's name. Nil when n is not a container or no
// such document exists.
func (n *Node) Note() *Node {
	if n.Kind != KindContainer {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == KindDocument && c.BaseName() == n.Name {
			return c
		}
	}
	return nil
}

// caseless compares names case-insensitively via collation, so ordering
// matches what a file browser shows rather than raw byte order.
var caseless = collate.New(language.Und, collate.IgnoreCase)

// SortedChildren returns the children ordered case-insensitively
// ascending by name. The sort is stable: equal names keep their
// original relative order.
func (n *Node) SortedChildren() []*Node {
	out := make([]*Node, len(n.Children))
	copy(out, n.Children)
	sort.SliceStable(out, func(i, j int) bool {
		return caseless.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
