// Package apperr defines sentinel errors shared across Raido components.
package apperr

import "errors"

var (
	// ErrNoWaypoint indicates a document contains no flag or begin marker.
	ErrNoWaypoint = errors.New("no waypoint marker")
	// ErrNotFound indicates a vault path does not resolve to a node.
	ErrNotFound = errors.New("not found")
	// ErrNotContainerNote indicates a flagged document does not belong to
	// the folder it would index.
	ErrNotContainerNote = errors.New("not a container note")
)
