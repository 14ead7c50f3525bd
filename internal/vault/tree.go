package vault

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// Tree owns the node graph for one vault. It is built by Scan at
// startup and mutated by the sync engine's event handlers; a single
// goroutine must own all mutation.
type Tree struct {
	root  *Node
	nodes map[string]*Node
}

// NewTree returns a tree holding only the root container.
func NewTree() *Tree {
	root := &Node{Kind: KindContainer, Name: "", Path: ""}
	return &Tree{
		root:  root,
		nodes: map[string]*Node{"": root},
	}
}

// Scan builds a tree from the directory at rootDir. Only directories
// and .md files participate; dot-prefixed entries are skipped.
func Scan(rootDir string) (*Tree, error) {
	t := NewTree()
	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == rootDir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			t.Create(rel, KindContainer)
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			t.Create(rel, KindDocument)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: scan: %w", err)
	}
	return t, nil
}

// Root returns the root container.
func (t *Tree) Root() *Node {
	return t.root
}

// Lookup returns the node at the exact vault-relative path, or nil.
// "" and "." both resolve to the root container.
func (t *Tree) Lookup(p string) *Node {
	p = path.Clean(p)
	if p == "." {
		p = ""
	}
	return t.nodes[p]
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Create inserts a node at p, materializing missing ancestor containers
// on the way down. Returns the node at p; an existing node is returned
// unchanged.
func (t *Tree) Create(p string, kind Kind) *Node {
	p = path.Clean(p)
	if p == "." || p == "" {
		return t.root
	}
	if n, ok := t.nodes[p]; ok {
		return n
	}
	parent := t.Create(path.Dir(p), KindContainer)
	n := &Node{
		Kind:   kind,
		Name:   path.Base(p),
		Path:   p,
		Parent: parent,
	}
	parent.Children = append(parent.Children, n)
	t.nodes[p] = n
	return n
}

// Remove detaches the node at p (and, for containers, its whole
// subtree) from the tree. Returns the removed node, or nil when p does
// not resolve. The root cannot be removed.
func (t *Tree) Remove(p string) *Node {
	p = path.Clean(p)
	n, ok := t.nodes[p]
	if !ok || n == t.root {
		return nil
	}
	parent := n.Parent
	for i, c := range parent.Children {
		if c == n {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	t.unindex(n)
	n.Parent = nil
	return n
}

func (t *Tree) unindex(n *Node) {
	delete(t.nodes, n.Path)
	for _, c := range n.Children {
		t.unindex(c)
	}
}

// Rename moves the node at oldPath to newPath, re-rooting any subtree
// beneath it. Returns the node at its new location, or nil when oldPath
// does not resolve.
func (t *Tree) Rename(oldPath, newPath string) *Node {
	n := t.Remove(oldPath)
	if n == nil {
		return nil
	}
	moved := t.Create(newPath, n.Kind)
	// Carry the subtree over to the new location.
	for _, c := range n.Children {
		t.reattach(moved, c)
	}
	return moved
}

func (t *Tree) reattach(parent *Node, n *Node) {
	moved := &Node{
		Kind:   n.Kind,
		Name:   n.Name,
		Path:   path.Join(parent.Path, n.Name),
		Parent: parent,
	}
	parent.Children = append(parent.Children, moved)
	t.nodes[moved.Path] = moved
	for _, c := range n.Children {
		t.reattach(moved, c)
	}
}
