// Package engine drives waypoint synchronization: it aggregates change
// events into debounced flushes, resolves the governing waypoint for
// each impacted folder, and rebuilds marker-delimited blocks in place.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/vault"
	"github.com/starford/raido/internal/waypoint"
)

// EventCallback is invoked after waypoint state changes. kind is one of
// "rebuilt", "flagged", "removed".
type EventCallback func(kind, docPath, containerPath string)

// flagErrorComment replaces a flag placed in a document that is not a
// container note.
const flagErrorComment = "%% Error: a waypoint must be placed in a folder note, a document named after the folder it indexes %%"

// Engine owns the vault tree, the pending-change set, and all rebuild
// work. A single loop goroutine (Run) executes every handler; other
// goroutines reach it through request channels.
type Engine struct {
	tree     *vault.Tree
	store    storage.Provider
	markers  waypoint.Markers
	ren      *waypoint.Renderer
	res      *waypoint.Resolver
	journal  journal.Recorder
	agg      *Aggregator
	logger   *slog.Logger
	debounce time.Duration
	cb       EventCallback

	rebuildReqCh  chan rebuildReq
	moveReqCh     chan moveReq
	snapshotReqCh chan chan *vault.View
}

// New assembles an engine over an already scanned tree.
func New(tree *vault.Tree, store storage.Provider, markers waypoint.Markers,
	jr journal.Recorder, logger *slog.Logger, debounce time.Duration, cb EventCallback) *Engine {
	ren := waypoint.NewRenderer(store, markers)
	return &Engine{
		tree:          tree,
		store:         store,
		markers:       markers,
		ren:           ren,
		res:           waypoint.NewResolver(ren),
		journal:       jr,
		agg:           NewAggregator(),
		logger:        logger,
		debounce:      debounce,
		cb:            cb,
		rebuildReqCh:  make(chan rebuildReq),
		moveReqCh:     make(chan moveReq),
		snapshotReqCh: make(chan chan *vault.View),
	}
}

func (e *Engine) emit(kind, docPath, containerPath string) {
	if e.cb != nil {
		e.cb(kind, docPath, containerPath)
	}
}

// InitialScan runs the flag protocol for every document that already
// holds a bare flag line. Call once after the tree scan, before the
// watcher starts delivering events.
func (e *Engine) InitialScan() {
	metas, err := e.store.List("")
	if err != nil {
		e.logger.Warn("engine: initial scan failed", slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		data, readErr := e.store.ReadCached(m.Path)
		if readErr != nil {
			continue
		}
		if !e.markers.Flagged(data) {
			continue
		}
		if doc := e.tree.Lookup(m.Path); doc != nil {
			e.rebuildFlagged(doc, journal.CauseStartup)
		}
	}
}

// --- event handlers (loop goroutine only) ---

func (e *Engine) handleCreated(rel string, isDir bool) {
	kind := vault.KindDocument
	if isDir {
		kind = vault.KindContainer
	}
	n := e.tree.Create(rel, kind)
	if !isDir {
		e.store.Invalidate(rel)
	}
	e.agg.Record(n.Parent)
}

func (e *Engine) handleDeleted(rel string) {
	n := e.tree.Lookup(rel)
	if n == nil {
		// Stale path with no tracked node; nothing to aggregate.
		return
	}
	parent := n.Parent
	e.pruneWaypoints(n)
	e.tree.Remove(rel)
	e.agg.Record(parent)
}

// pruneWaypoints drops journal rows and cached content for every
// document in a subtree about to leave the tree. A folder delete or
// rename arrives from the watcher as one event on the directory path,
// so the documents inside it never get events of their own.
func (e *Engine) pruneWaypoints(n *vault.Node) {
	if n.Kind == vault.KindDocument {
		if data, err := e.store.ReadCached(n.Path); err == nil && e.markers.Present(data) {
			e.emit("removed", n.Path, containerPath(n.Parent))
		}
		if err := e.journal.RemoveWaypoint(n.Path); err != nil {
			e.logger.Warn("engine: journal prune failed",
				slog.String("path", n.Path), slog.String("error", err.Error()))
		}
		e.store.Invalidate(n.Path)
		return
	}
	for _, c := range n.Children {
		e.pruneWaypoints(c)
	}
	e.store.Invalidate(n.Path)
}

func (e *Engine) handleModified(rel string) {
	doc := e.tree.Lookup(rel)
	if doc == nil || doc.Kind != vault.KindDocument {
		return
	}
	e.store.Invalidate(rel)
	data, err := e.store.ReadCached(rel)
	if err != nil {
		return
	}
	// A bare flag bypasses aggregation: the edited document rebuilds
	// immediately and its parent's waypoint collapses the new subtree.
	if e.markers.Flagged(data) {
		e.rebuildFlagged(doc, journal.CauseFlag)
	}
}

// --- rebuild protocols ---

// flush drains the pending set and rebuilds the governing waypoint of
// every container in the batch. Distinct containers governed by the
// same document rebuild it once. Failures are local to one rebuild.
func (e *Engine) flush(cause string) {
	batch := e.agg.Drain()
	if len(batch) == 0 {
		return
	}
	e.logger.Debug("engine: flush", slog.Int("containers", len(batch)))

	done := make(map[*vault.Node]struct{}, len(batch))
	for _, c := range batch {
		gov := e.res.Governing(c, true)
		if gov == nil {
			// No waypoint configured on this branch.
			e.logger.Debug("engine: no governing waypoint", slog.String("container", c.Path))
			continue
		}
		if _, ok := done[gov]; ok {
			continue
		}
		done[gov] = struct{}{}

		scope := gov.Parent
		if scope == nil {
			continue
		}
		if err := e.rebuild(gov, scope, cause); err != nil {
			e.logger.Warn("engine: rebuild skipped",
				slog.String("doc", gov.Path),
				slog.String("error", err.Error()))
		}
	}
}

// rebuildFlagged handles a document that gained a bare flag line: the
// document becomes its own governing waypoint, then the parent chain is
// resolved without it so the newly self-indexed subtree collapses one
// level up.
func (e *Engine) rebuildFlagged(doc *vault.Node, cause string) {
	parent := doc.Parent
	if parent == nil {
		return
	}
	if parent.Note() != doc {
		e.replaceFlagWithError(doc)
		return
	}

	if err := e.rebuild(doc, parent, cause); err != nil {
		e.logger.Warn("engine: flag rebuild skipped",
			slog.String("doc", doc.Path), slog.String("error", err.Error()))
		return
	}
	e.emit("flagged", doc.Path, parent.Path)

	if gov := e.res.Governing(parent, false); gov != nil && gov.Parent != nil {
		if err := e.rebuild(gov, gov.Parent, cause); err != nil {
			e.logger.Warn("engine: parent rebuild skipped",
				slog.String("doc", gov.Path), slog.String("error", err.Error()))
		}
	}
}

// rebuild regenerates the waypoint block in doc from the contents of
// scope: render at depth 0, wrap in begin/end, splice over the located
// span, persist. The write is skipped when the text is unchanged.
func (e *Engine) rebuild(doc *vault.Node, scope *vault.Node, cause string) error {
	data, err := e.store.Read(doc.Path)
	if err != nil {
		return fmt.Errorf("engine: read: %w", err)
	}
	lines := strings.Split(string(data), "\n")

	span, err := e.markers.Locate(lines)
	if err != nil {
		return fmt.Errorf("engine: %s: %w", doc.Path, err)
	}

	body, err := e.ren.Render(scope, 0, true)
	if err != nil {
		return fmt.Errorf("engine: render %s: %w", scope.Path, err)
	}

	block := e.markers.Begin + "\n" + body + "\n" + e.markers.End

	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:span.Start]...)
	out = append(out, e.markers.Begin)
	out = append(out, strings.Split(body, "\n")...)
	out = append(out, e.markers.End)
	out = append(out, lines[span.End+1:]...)
	newText := strings.Join(out, "\n")

	changed := newText != string(data)
	if changed {
		if err := e.store.Write(doc.Path, []byte(newText)); err != nil {
			return fmt.Errorf("engine: write: %w", err)
		}
	}

	if err := e.journal.RecordRebuild(journal.RebuildRow{
		DocPath:       doc.Path,
		ContainerPath: scope.Path,
		Cause:         cause,
		Checksum:      checksum.Sum([]byte(block)),
	}); err != nil {
		e.logger.Warn("engine: journal record failed",
			slog.String("doc", doc.Path), slog.String("error", err.Error()))
	}

	if changed {
		e.emit("rebuilt", doc.Path, scope.Path)
	}
	e.logger.Info("engine: rebuilt waypoint",
		slog.String("doc", doc.Path),
		slog.String("container", scope.Path),
		slog.String("cause", cause),
		slog.Bool("changed", changed))
	return nil
}

// replaceFlagWithError swaps a misplaced flag line for a comment
// explaining why no waypoint was created.
func (e *Engine) replaceFlagWithError(doc *vault.Node) {
	data, err := e.store.Read(doc.Path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	span, err := e.markers.Locate(lines)
	if err != nil {
		return
	}
	out := make([]string, 0, len(lines))
	out = append(out, lines[:span.Start]...)
	out = append(out, flagErrorComment)
	out = append(out, lines[span.End+1:]...)
	if err := e.store.Write(doc.Path, []byte(strings.Join(out, "\n"))); err != nil {
		e.logger.Warn("engine: flag error write failed",
			slog.String("doc", doc.Path), slog.String("error", err.Error()))
		return
	}
	e.logger.Warn("engine: flag outside container note", slog.String("doc", doc.Path))
}

// manualRebuild serves an explicit rebuild request for the container at
// p (or the container holding the document at p).
func (e *Engine) manualRebuild(p string) error {
	n := e.tree.Lookup(p)
	if n == nil {
		return fmt.Errorf("engine: %s: %w", p, apperr.ErrNotFound)
	}
	c := n
	if n.Kind == vault.KindDocument {
		c = n.Parent
	}
	e.agg.Record(c)
	e.flush(journal.CauseManual)
	return nil
}

// manualMove relocates a document on disk and in the tree, then rebuilds
// the waypoints governing both ends of the move. Documents only; folder
// moves arrive through the watcher as delete+create pairs.
func (e *Engine) manualMove(oldPath, newPath string) error {
	n := e.tree.Lookup(oldPath)
	if n == nil {
		return fmt.Errorf("engine: %s: %w", oldPath, apperr.ErrNotFound)
	}
	if n.Kind != vault.KindDocument {
		return fmt.Errorf("engine: %s: only documents can be moved", oldPath)
	}
	if !strings.HasSuffix(newPath, ".md") {
		return fmt.Errorf("engine: %s: destination must be a .md path", newPath)
	}
	if e.tree.Lookup(newPath) != nil {
		return fmt.Errorf("engine: %s: destination already exists", newPath)
	}

	oldParent := n.Parent
	if err := e.store.Move(oldPath, newPath); err != nil {
		return fmt.Errorf("engine: move: %w", err)
	}
	moved := e.tree.Rename(oldPath, newPath)

	// A waypoint travelling with the document is re-registered under its
	// new path by the rebuild below; the old registration is stale now.
	if err := e.journal.RemoveWaypoint(oldPath); err != nil {
		e.logger.Warn("engine: journal prune failed",
			slog.String("path", oldPath), slog.String("error", err.Error()))
	}

	e.agg.Record(oldParent)
	e.agg.Record(moved.Parent)
	e.flush(journal.CauseManual)
	return nil
}

// IsNotFound reports whether err is a path-resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}

func containerPath(c *vault.Node) string {
	if c == nil {
		return ""
	}
	return c.Path
}
