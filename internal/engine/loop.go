package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/vault"
	"github.com/starford/raido/internal/watch"
)

// Debounce states. The quiescence timer arms at the first record of a
// burst and is not reset by later records, so every change inside one
// window merges into a single flush.
type loopState int

const (
	stateIdle loopState = iota
	stateArmed
	stateFlushing
)

type rebuildReq struct {
	path string
	resp chan error
}

type moveReq struct {
	oldPath string
	newPath string
	resp    chan error
}

// Run consumes watcher events until ctx is cancelled. It is the only
// goroutine that touches the tree, the pending set, and rebuild work;
// RequestRebuild, RequestMove, and Snapshot are served between events.
func (e *Engine) Run(ctx context.Context, events <-chan watch.Event) error {
	state := stateIdle
	timer := time.NewTimer(e.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	arm := func() {
		if state != stateIdle || e.agg.Len() == 0 {
			return
		}
		timer.Reset(e.debounce)
		timerC = timer.C
		state = stateArmed
	}

	for {
		select {
		case <-ctx.Done():
			if state == stateArmed {
				// Drain whatever the interrupted window collected.
				e.flush(journal.CauseBatch)
			}
			timer.Stop()
			e.logger.Info("engine: stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handleEvent(ev)
			arm()

		case <-timerC:
			timerC = nil
			state = stateFlushing
			e.flush(journal.CauseBatch)
			state = stateIdle
			// Changes recorded while flushing start a fresh window.
			arm()

		case req := <-e.rebuildReqCh:
			req.resp <- e.manualRebuild(req.path)

		case req := <-e.moveReqCh:
			req.resp <- e.manualMove(req.oldPath, req.newPath)

		case resp := <-e.snapshotReqCh:
			resp <- vault.BuildView(e.tree.Root(), e.ren.HasWaypoint)
		}
	}
}

func (e *Engine) handleEvent(ev watch.Event) {
	e.logger.Debug("engine: event",
		slog.String("op", ev.Op.String()), slog.String("path", ev.Path))
	switch ev.Op {
	case watch.OpCreated:
		e.handleCreated(ev.Path, ev.IsDir)
	case watch.OpDeleted:
		e.handleDeleted(ev.Path)
	case watch.OpRenamed:
		// Only the old path is reported; the new path follows as a
		// created event and records its own parent.
		e.handleDeleted(ev.Path)
	case watch.OpModified:
		e.handleModified(ev.Path)
	}
}

// RequestRebuild asks the loop to rebuild the waypoint governing the
// container at path immediately. Safe for concurrent use.
func (e *Engine) RequestRebuild(ctx context.Context, path string) error {
	req := rebuildReq{path: path, resp: make(chan error, 1)}
	select {
	case e.rebuildReqCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestMove asks the loop to relocate a document and rebuild the
// waypoints at both ends. Safe for concurrent use.
func (e *Engine) RequestMove(ctx context.Context, oldPath, newPath string) error {
	req := moveReq{oldPath: oldPath, newPath: newPath, resp: make(chan error, 1)}
	select {
	case e.moveReqCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a view of the vault tree with waypoint bits, served
// by the loop goroutine. Safe for concurrent use.
func (e *Engine) Snapshot(ctx context.Context) (*vault.View, error) {
	resp := make(chan *vault.View, 1)
	select {
	case e.snapshotReqCh <- resp:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case v := <-resp:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
