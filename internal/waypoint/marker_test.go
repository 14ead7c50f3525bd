package waypoint

import (
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func TestNewMarkers(t *testing.T) {
	m := NewMarkers("Waypoint")
	if m.Flag != "%% Waypoint %%" {
		t.Errorf("flag = %q", m.Flag)
	}
	if m.Begin != "%% Begin Waypoint %%" {
		t.Errorf("begin = %q", m.Begin)
	}
	if m.End != "%% End Waypoint %%" {
		t.Errorf("end = %q", m.End)
	}
}

func TestLocate_BeginEnd(t *testing.T) {
	m := DefaultMarkers()
	lines := []string{
		"# Title",
		"%% Begin Waypoint %%",
		"- [[a]]",
		"- [[b]]",
		"%% End Waypoint %%",
		"trailing",
	}
	span, err := m.Locate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if span.Start != 1 || span.End != 4 {
		t.Errorf("span = %+v, want {1 4}", span)
	}
}

func TestLocate_FlagOnly(t *testing.T) {
	m := DefaultMarkers()
	lines := []string{"text", "%% Waypoint %%", "more text"}
	span, err := m.Locate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if span.Start != 1 || span.End != 1 {
		t.Errorf("span = %+v, want {1 1}", span)
	}
}

func TestLocate_BeginWithoutEnd(t *testing.T) {
	m := DefaultMarkers()
	lines := []string{"%% Begin Waypoint %%", "- [[a]]"}
	span, err := m.Locate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if span.Start != 0 || span.End != 0 {
		t.Errorf("span = %+v, want {0 0}", span)
	}
}

func TestLocate_NoMarker(t *testing.T) {
	m := DefaultMarkers()
	_, err := m.Locate([]string{"just", "text"})
	if !errors.Is(err, apperr.ErrNoWaypoint) {
		t.Errorf("err = %v, want ErrNoWaypoint", err)
	}
}

func TestLocate_TrimsWhitespace(t *testing.T) {
	m := DefaultMarkers()
	lines := []string{"  %% Waypoint %%  "}
	span, err := m.Locate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if span.Start != 0 {
		t.Errorf("span = %+v", span)
	}
}

func TestLocate_PartialMatchIgnored(t *testing.T) {
	m := DefaultMarkers()
	_, err := m.Locate([]string{"see %% Waypoint %% inline", "%%Waypoint%%"})
	if !errors.Is(err, apperr.ErrNoWaypoint) {
		t.Errorf("embedded or unspaced marker text should not match, err = %v", err)
	}
}

func TestPresent(t *testing.T) {
	m := DefaultMarkers()
	if !m.Present([]byte("a\n%% Begin Waypoint %%\nb")) {
		t.Error("begin marker should count as present")
	}
	if !m.Present([]byte("%% Waypoint %%")) {
		t.Error("flag should count as present")
	}
	if m.Present([]byte("%% End Waypoint %%")) {
		t.Error("a lone end marker is not a waypoint")
	}
}

func TestFlagged(t *testing.T) {
	m := DefaultMarkers()
	if !m.Flagged([]byte("x\n %% Waypoint %% \ny")) {
		t.Error("bare flag should be detected")
	}
	if m.Flagged([]byte("%% Begin Waypoint %%\n%% End Waypoint %%")) {
		t.Error("a rendered block is not a flag")
	}
}
