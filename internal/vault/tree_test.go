package vault

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScan_BuildsTree(t *testing.T) {
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, "Projects", "Sub"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "Projects", "A.md"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "Projects", "Sub", "c.md"), []byte("c"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not md"), 0o644)
	_ = os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755)

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if n := tree.Lookup("Projects/Sub/c.md"); n == nil || n.Kind != KindDocument {
		t.Error("nested document missing from tree")
	}
	if n := tree.Lookup("Projects/Sub"); n == nil || n.Kind != KindContainer {
		t.Error("nested container missing from tree")
	}
	if tree.Lookup("readme.txt") != nil {
		t.Error("non-markdown file should not be tracked")
	}
	if tree.Lookup(".hidden") != nil {
		t.Error("dot directory should not be tracked")
	}
	// root, Projects, Sub, A.md, c.md
	if tree.Len() != 5 {
		t.Errorf("Len = %d, want 5", tree.Len())
	}
}

func TestLookup_RootAliases(t *testing.T) {
	tree := NewTree()
	tree.Create("a.md", KindDocument)

	if tree.Lookup("") != tree.Root() {
		t.Error(`Lookup("") should resolve to the root container`)
	}
	if tree.Lookup(".") != tree.Root() {
		t.Error(`Lookup(".") should resolve to the root container`)
	}
	if tree.Lookup("./a.md") == nil {
		t.Error("Lookup should clean relative prefixes")
	}
}

func TestCreate_MaterializesAncestors(t *testing.T) {
	tree := NewTree()
	n := tree.Create("a/b/c.md", KindDocument)

	if n.Path != "a/b/c.md" || n.Kind != KindDocument {
		t.Fatalf("node = %+v", n)
	}
	b := tree.Lookup("a/b")
	if b == nil || b.Kind != KindContainer {
		t.Fatal("intermediate container not materialized")
	}
	if n.Parent != b {
		t.Error("parent pointer not wired")
	}
	if b.Parent == nil || b.Parent.Parent != tree.Root() {
		t.Error("ancestor chain broken")
	}

	// Creating again returns the same node.
	if again := tree.Create("a/b/c.md", KindDocument); again != n {
		t.Error("Create should be idempotent for existing paths")
	}
}

func TestRemove_DetachesSubtree(t *testing.T) {
	tree := NewTree()
	tree.Create("a/b/c.md", KindDocument)
	tree.Create("a/b/d.md", KindDocument)

	removed := tree.Remove("a/b")
	if removed == nil {
		t.Fatal("Remove returned nil for existing container")
	}
	if tree.Lookup("a/b") != nil || tree.Lookup("a/b/c.md") != nil {
		t.Error("subtree still reachable after Remove")
	}
	a := tree.Lookup("a")
	if a == nil || len(a.Children) != 0 {
		t.Error("parent still references removed child")
	}
	if tree.Remove("a/b") != nil {
		t.Error("second Remove should be a no-op")
	}
	if tree.Remove("") != nil {
		t.Error("root must not be removable")
	}
}

func TestRename_MovesSubtree(t *testing.T) {
	tree := NewTree()
	tree.Create("a/b/c.md", KindDocument)

	moved := tree.Rename("a/b", "x/y")
	if moved == nil || moved.Path != "x/y" {
		t.Fatalf("moved = %+v", moved)
	}
	if tree.Lookup("x/y/c.md") == nil {
		t.Error("subtree content not carried over")
	}
	if tree.Lookup("a/b") != nil {
		t.Error("old path still resolves")
	}
}

func TestNote_Lookup(t *testing.T) {
	tree := NewTree()
	sub := tree.Create("Projects/Sub", KindContainer)
	tree.Create("Projects/Sub/other.md", KindDocument)

	if sub.Note() != nil {
		t.Error("no note expected before Sub.md exists")
	}
	note := tree.Create("Projects/Sub/Sub.md", KindDocument)
	if sub.Note() != note {
		t.Error("Note should match the document named after the container")
	}
	if note.Note() != nil {
		t.Error("documents have no note")
	}
}

func TestSortedChildren_CaselessStable(t *testing.T) {
	tree := NewTree()
	p := tree.Create("p", KindContainer)
	tree.Create("p/b.md", KindDocument)
	tree.Create("p/A.md", KindDocument)
	tree.Create("p/Sub", KindContainer)

	got := p.SortedChildren()
	want := []string{"A.md", "b.md", "Sub"}
	for i, n := range got {
		if n.Name != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, n.Name, want[i])
		}
	}
	// Original slice order is untouched.
	if p.Children[0].Name != "b.md" {
		t.Error("SortedChildren must not mutate insertion order")
	}
}

func TestBaseName(t *testing.T) {
	tree := NewTree()
	doc := tree.Create("a/Note.md", KindDocument)
	if doc.BaseName() != "Note" {
		t.Errorf("BaseName = %q", doc.BaseName())
	}
	dir := tree.Lookup("a")
	if dir.BaseName() != "a" {
		t.Errorf("container BaseName = %q", dir.BaseName())
	}
}
