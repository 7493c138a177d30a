// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes scheduling tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/models"
)

// Server wraps the MCP server with scheduling tools.
type Server struct {
	mcp   *server.MCPServer
	eng   *engine.Engine
	nowFn func() time.Time
}

// New creates a new MCP server with all scheduling tools registered.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng, nowFn: time.Now}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("book_appointment",
		mcp.WithDescription("Book an appointment. Date and time accept natural "+
			"expressions (\"tomorrow\", \"next friday\", \"3pm\") as well as "+
			"absolute forms (\"2024-03-05 14:30\")."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short description of the appointment")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date expression")),
		mcp.WithString("time", mcp.Description("Time expression (optional)")),
		mcp.WithString("participant", mcp.Description("Person the appointment is with (optional)")),
		mcp.WithNumber("duration_minutes", mcp.Description("Length in minutes (optional)")),
	), s.bookAppointment)

	s.mcp.AddTool(mcp.NewTool("cancel_appointment",
		mcp.WithDescription("Cancel an appointment by id, or by title/participant "+
			"when exactly one active appointment matches."),
		mcp.WithNumber("id", mcp.Description("Appointment id")),
		mcp.WithString("title", mcp.Description("Title to match (fuzzy)")),
		mcp.WithString("participant", mcp.Description("Participant to match")),
	), s.cancelAppointment)

	s.mcp.AddTool(mcp.NewTool("list_appointments",
		mcp.WithDescription("List active appointments, optionally filtered by "+
			"\"today\", \"tomorrow\", \"week\", \"month\" or a date expression."),
		mcp.WithString("filter", mcp.Description("Optional date filter")),
	), s.listAppointments)

	// Resource: raw intent contract for clients that drive POST /intents.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://intent-format", "Raw Intent Contract",
			mcp.WithResourceDescription("Field bag accepted by the command pipeline."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readIntentContractResource,
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

func (s *Server) bookAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw := models.RawIntent{"intent": "book", "title": title, "date": date}
	if v, err := req.RequireString("time"); err == nil {
		raw["time"] = v
	}
	if v, err := req.RequireString("participant"); err == nil {
		raw["participant"] = v
	}
	if v, err := req.RequireFloat("duration_minutes"); err == nil {
		raw["duration_minutes"] = v
	}
	return s.runIntent(ctx, raw)
}

func (s *Server) cancelAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := models.RawIntent{"intent": "cancel"}
	if v, err := req.RequireFloat("id"); err == nil {
		raw["id"] = v
	}
	if v, err := req.RequireString("title"); err == nil {
		raw["title"] = v
	}
	if v, err := req.RequireString("participant"); err == nil {
		raw["participant"] = v
	}
	return s.runIntent(ctx, raw)
}

func (s *Server) listAppointments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := models.RawIntent{"intent": "list"}
	if v, err := req.RequireString("filter"); err == nil {
		raw["date_filter"] = v
	}
	return s.runIntent(ctx, raw)
}

func (s *Server) runIntent(ctx context.Context, raw models.RawIntent) (*mcp.CallToolResult, error) {
	res := s.eng.Execute(ctx, raw, s.nowFn())
	if res.Status == engine.StatusRejected {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", res.Err.Kind, res.Err.Detail)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readIntentContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://intent-format",
			MIMEType: "text/markdown",
			Text:     IntentContract,
		},
	}, nil
}
