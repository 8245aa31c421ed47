package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "reminder"
	serverVersion = "2.0.0"
)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	service   Service
	now       func() time.Time
}

// NewServer creates a new Reminder MCP server backed by the given service.
func NewServer(service Service) *Server {
	s := &Server{
		service: service,
		now:     time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a daily reminder that rings at the given time of day"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Time of day in 24-hour HH:MM format (e.g. 14:30)")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List all reminders, optionally filtered by status (pending or completed)"),
			mcp.WithString("status", mcp.Description("Filter by status: pending, completed, or empty for all")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("due_reminders",
			mcp.WithDescription("Get pending reminders scheduled for a time of day (defaults to the current time)"),
			mcp.WithString("time", mcp.Description("Time of day in HH:MM format")),
		),
		s.handleDueReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_reminder",
			mcp.WithDescription("Flip a reminder between pending and completed. Unchecking re-arms it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleToggleReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as completed"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleCompleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's title or time"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("time", mcp.Description("New time of day in HH:MM format")),
		),
		s.handleUpdateReminder,
	)
}

func (s *Server) handleAddReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	added, err := s.service.Add(Draft{
		Title: req.GetString("title", ""),
		Time:  req.GetString("time", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}
	return jsonResult(added), nil
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders, err := FilterStatus(s.service.Reminders(), req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(reminders), nil
}

func (s *Server) handleDueReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clock := FormatClock(s.now())
	if v := req.GetString("time", ""); v != "" {
		t, err := ParseTime(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		clock = t
	}

	due := DueAt(s.service.Reminders(), clock)
	if len(due) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No reminders due at %s.", clock)), nil
	}
	return jsonResult(due), nil
}

func (s *Server) handleToggleReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	r, err := s.service.Toggle(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle reminder: %v", err)), nil
	}
	return jsonResult(r), nil
}

func (s *Server) handleCompleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	if _, err := s.service.SetCompleted(id, true); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s marked as completed.", id)), nil
}

func (s *Server) handleDeleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	if err := s.service.Delete(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handleUpdateReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var fields UpdateFields
	if v := req.GetString("title", ""); v != "" {
		fields.Title = &v
	}
	if v := req.GetString("time", ""); v != "" {
		fields.Time = &v
	}

	updated, err := s.service.Update(id, fields)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}
	return jsonResult(updated), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}
