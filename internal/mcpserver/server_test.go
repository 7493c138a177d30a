package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/dateparse"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/intent"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/validate"
)

var ref = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func testServer(t *testing.T) *Server {
	t.Helper()

	f, err := storage.NewFile(filepath.Join(t.TempDir(), "schedules.json"))
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(st,
		&intent.Resolver{Dates: &dateparse.Normalizer{}, DefaultDuration: time.Hour},
		&validate.Validator{MaxDuration: 8 * time.Hour},
		engine.PolicyWarn, nil)

	srv := New(eng)
	srv.nowFn = func() time.Time { return ref }
	return srv
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "book_appointment":
		result, err = srv.bookAppointment(ctx, req)
	case "cancel_appointment":
		result, err = srv.cancelAppointment(ctx, req)
	case "list_appointments":
		result, err = srv.listAppointments(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestBookAndListAppointments(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "book_appointment", map[string]interface{}{
		"title": "Dentist",
		"date":  "tomorrow",
		"time":  "3pm",
	})
	if r.IsError {
		t.Fatalf("book failed: %q", resultText(r))
	}
	if !strings.Contains(resultText(r), "Dentist") {
		t.Errorf("book result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_appointments", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("list failed: %q", resultText(r))
	}
	if !strings.Contains(resultText(r), "Dentist") {
		t.Errorf("list result = %q", resultText(r))
	}
}

func TestBookMissingDate(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "book_appointment", map[string]interface{}{"title": "x"})
	if !r.IsError {
		t.Error("expected error for missing date")
	}
}

func TestCancelAppointmentByID(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "book_appointment", map[string]interface{}{
		"title": "Standup", "date": "tomorrow", "time": "10:00",
	})

	r := callTool(t, srv, "cancel_appointment", map[string]interface{}{"id": float64(1)})
	if r.IsError {
		t.Fatalf("cancel failed: %q", resultText(r))
	}

	r = callTool(t, srv, "cancel_appointment", map[string]interface{}{"id": float64(1)})
	if !r.IsError || !strings.Contains(resultText(r), "NotFound") {
		t.Errorf("second cancel = %q", resultText(r))
	}
}

func TestCancelWithoutCriteria(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "cancel_appointment", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for cancel without criteria")
	}
}

func TestListWithFilter(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "book_appointment", map[string]interface{}{
		"title": "near", "date": "tomorrow", "time": "10:00",
	})
	_ = callTool(t, srv, "book_appointment", map[string]interface{}{
		"title": "far", "date": "next friday", "time": "10:00",
	})

	r := callTool(t, srv, "list_appointments", map[string]interface{}{"filter": "tomorrow"})
	text := resultText(r)
	if !strings.Contains(text, "near") || strings.Contains(text, "far") {
		t.Errorf("filtered list = %q", text)
	}
}
