package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/raido/internal/engine"
	"github.com/starford/raido/internal/journal"
)

// Handler serves the waypoint API endpoints.
type Handler struct {
	eng *engine.Engine
	jr  journal.Recorder
}

// NewHandler creates an API handler over the engine and journal.
func NewHandler(eng *engine.Engine, jr journal.Recorder) *Handler {
	return &Handler{eng: eng, jr: jr}
}

// WaypointItem is one active waypoint in a list response.
type WaypointItem struct {
	Doc       string    `json:"doc"`
	Container string    `json:"container"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RebuildItem is one rebuild history entry.
type RebuildItem struct {
	Doc       string    `json:"doc"`
	Container string    `json:"container"`
	Cause     string    `json:"cause"`
	RebuiltAt time.Time `json:"rebuilt_at"`
}

// RebuildRequest asks for an immediate rebuild pass on a vault path.
type RebuildRequest struct {
	Path string `json:"path"`
}

// ListWaypoints handles GET /waypoints.
func (h *Handler) ListWaypoints(w http.ResponseWriter, _ *http.Request) {
	rows, err := h.jr.Waypoints()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	items := make([]WaypointItem, len(rows))
	for i, r := range rows {
		items[i] = WaypointItem{
			Doc:       r.DocPath,
			Container: r.ContainerPath,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"waypoints": items})
}

// ListRebuilds handles GET /rebuilds.
func (h *Handler) ListRebuilds(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := h.jr.Rebuilds(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	items := make([]RebuildItem, len(rows))
	for i, row := range rows {
		items[i] = RebuildItem{
			Doc:       row.DocPath,
			Container: row.ContainerPath,
			Cause:     row.Cause,
			RebuiltAt: row.RebuiltAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rebuilds": items})
}

// Tree handles GET /tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	view, err := h.eng.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Rebuild handles POST /rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.eng.RequestRebuild(r.Context(), req.Path); err != nil {
		if engine.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuilt", "path": req.Path})
}
