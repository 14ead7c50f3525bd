// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido waypoint tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	gopath "path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/engine"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/waypoint"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	store   storage.Provider
	jr      journal.Recorder
	eng     *engine.Engine
	markers waypoint.Markers
}

// New creates a new MCP server with all Raido tools registered.
func New(store storage.Provider, jr journal.Recorder, eng *engine.Engine, markers waypoint.Markers) *Server {
	s := &Server{store: store, jr: jr, eng: eng, markers: markers}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_waypoints",
		mcp.WithDescription("List all active waypoint documents and the folders they index."),
	), s.listWaypoints)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a vault Markdown document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("rebuild_waypoint",
		mcp.WithDescription("Force an immediate rebuild of the waypoint governing a folder."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative vault path of the folder (or a document inside it)")),
	), s.rebuildWaypoint)

	s.mcp.AddTool(mcp.NewTool("move_document",
		mcp.WithDescription("Move a vault document to a new path. The waypoints indexing "+
			"both the old and the new folder are rebuilt immediately."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current relative path of the document")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New relative path (must end with .md)")),
	), s.moveDocument)

	s.mcp.AddTool(mcp.NewTool("place_flag",
		mcp.WithDescription("Append a waypoint flag line to a folder note so the sync engine "+
			"generates an index block there. The note must be named after the folder it lives in. "+
			"Read the waypoint format first via the raido://waypoint-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the folder note (must end with .md)")),
	), s.placeFlag)

	// Resource: waypoint format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://waypoint-format", "Waypoint Format Contract",
			mcp.WithResourceDescription("The marker lines and block layout of a waypoint."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listWaypoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.jr.Waypoints()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no active waypoints"), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) rebuildWaypoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.RequestRebuild(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("rebuilt: %s", path)), nil
}

func (s *Server) moveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.RequestMove(ctx, from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s -> %s", from, to)), nil
}

func (s *Server) placeFlag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasSuffix(path, ".md") {
		return mcp.NewToolResultError("path must end with .md"), nil
	}
	base := strings.TrimSuffix(gopath.Base(path), ".md")
	if gopath.Base(gopath.Dir(path)) != base {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, apperr.ErrNotContainerNote)), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if s.markers.Present(data) {
		return mcp.NewToolResultError(fmt.Sprintf("waypoint already present: %s", path)), nil
	}

	text := string(data)
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += s.markers.Flag + "\n"
	if err := s.store.Write(path, []byte(text)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("flag placed: %s", path)), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://waypoint-format",
			MIMEType: "text/markdown",
			Text:     FormatContract(s.markers),
		},
	}, nil
}
