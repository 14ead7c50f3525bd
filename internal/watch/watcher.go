// Package watch translates fsnotify activity on the vault root into
// vault-relative change events for the sync engine.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Op classifies a change event.
type Op int

const (
	// OpCreated reports a new file or directory.
	OpCreated Op = iota
	// OpDeleted reports a removed path.
	OpDeleted
	// OpRenamed reports the old path of a rename; the new path arrives
	// as a separate OpCreated when it stays inside the vault.
	OpRenamed
	// OpModified reports a content write to an existing document.
	OpModified
)

func (o Op) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpDeleted:
		return "deleted"
	case OpRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// Event is one vault change. Path is vault-relative with forward
// slashes. IsDir is only meaningful for OpCreated; removed paths cannot
// be classified and the consumer resolves them against its tree.
type Event struct {
	Op    Op
	Path  string
	IsDir bool
}

// Run watches vaultRoot and sends events until ctx is cancelled.
// Subdirectories are watched recursively, including directories created
// at runtime; a directory that appears with content in place (e.g. a
// move into the vault) produces synthetic created events for every .md
// file and subdirectory found inside it.
func Run(ctx context.Context, vaultRoot string, logger *slog.Logger, out chan<- Event) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	send := func(ev Event) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			if strings.HasPrefix(filepath.Base(absPath), ".") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			// New directories join the watch list before any event is
			// forwarded, so nothing inside them is missed.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					send(Event{Op: OpCreated, Path: rel, IsDir: true})
					emitDirContents(ctx, vaultRoot, absPath, send)
					continue
				}
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				if !strings.HasSuffix(rel, ".md") {
					continue
				}
				send(Event{Op: OpCreated, Path: rel})

			case ev.Op&fsnotify.Write != 0:
				if !strings.HasSuffix(rel, ".md") {
					continue
				}
				send(Event{Op: OpModified, Path: rel})

			case ev.Op&fsnotify.Remove != 0:
				// Removed paths cannot be stat'ed; forward everything
				// and let the engine drop paths it never tracked.
				send(Event{Op: OpDeleted, Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new
				// path arrives as a Create inside a watched dir.
				send(Event{Op: OpRenamed, Path: rel})
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// emitDirContents sends synthetic created events for everything already
// inside a newly appeared directory.
func emitDirContents(ctx context.Context, vaultRoot, dirPath string, send func(Event)) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == dirPath {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			send(Event{Op: OpCreated, Path: rel, IsDir: true})
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			send(Event{Op: OpCreated, Path: rel})
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
