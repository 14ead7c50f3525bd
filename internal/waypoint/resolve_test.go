package waypoint

import (
	"testing"

	"github.com/starford/raido/internal/vault"
)

// resolveEnv builds a/a.md (flagged), a/b (no note), a/b/c with a
// markerless note c.md.
func resolveEnv(t *testing.T) (*vault.Tree, *Resolver, *Renderer) {
	t.Helper()
	tree, ren := renderEnv(t)
	tree.Create("a", vault.KindContainer)
	tree.Create("a/a.md", vault.KindDocument)
	tree.Create("a/b", vault.KindContainer)
	tree.Create("a/b/c", vault.KindContainer)
	tree.Create("a/b/c/c.md", vault.KindDocument)
	mustWrite(t, ren, "a/a.md", "%% Waypoint %%\n")
	mustWrite(t, ren, "a/b/c/c.md", "plain note\n")
	return tree, NewResolver(ren), ren
}

func TestGoverning_WalksPastMissingAndMarkerlessNotes(t *testing.T) {
	tree, res, _ := resolveEnv(t)

	// c's own note has no marker, b has no note at all; a governs.
	gov := res.Governing(tree.Lookup("a/b/c"), true)
	if gov == nil || gov.Path != "a/a.md" {
		t.Fatalf("governing = %v, want a/a.md", gov)
	}
}

func TestGoverning_IncludeSelf(t *testing.T) {
	tree, res, ren := resolveEnv(t)
	mustWrite(t, ren, "a/b/c/c.md", "%% Begin Waypoint %%\n%% End Waypoint %%\n")

	c := tree.Lookup("a/b/c")
	if gov := res.Governing(c, true); gov == nil || gov.Path != "a/b/c/c.md" {
		t.Errorf("include-self should pick c's own note, got %v", gov)
	}
	if gov := res.Governing(c, false); gov == nil || gov.Path != "a/a.md" {
		t.Errorf("exclude-self should pick the ancestor note, got %v", gov)
	}
}

func TestGoverning_NoneAtRoot(t *testing.T) {
	tree, res, ren := resolveEnv(t)
	mustWrite(t, ren, "a/a.md", "no markers here\n")

	if gov := res.Governing(tree.Lookup("a/b/c"), true); gov != nil {
		t.Errorf("expected no governing waypoint, got %s", gov.Path)
	}
}
