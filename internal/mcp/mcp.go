// Package mcp implements the Model Context Protocol server for the
// Zendesk bridge.
//
// This exposes ticket, user, and macro tools plus the knowledge-base
// resource via MCP so ANY agent (Claude Desktop, Cursor, OpenCode,
// etc.) can work a Zendesk queue just by adding it as an MCP server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/supportfoundry/zendesk-mcp/internal/kb"
	"github.com/supportfoundry/zendesk-mcp/internal/zendesk"
)

const (
	serverName    = "zendesk-mcp"
	serverVersion = "0.1.0"
)

// Backend is the slice of the Zendesk adapter the tool handlers call.
// *zendesk.Client satisfies it; tests substitute a fake.
type Backend interface {
	GetTicket(ctx context.Context, ticketID int64) (*zendesk.Ticket, error)
	ListTickets(ctx context.Context, page, perPage int, sortBy, sortOrder string) (*zendesk.TicketPage, error)
	GetTicketComments(ctx context.Context, ticketID int64) ([]zendesk.Comment, error)
	PostComment(ctx context.Context, ticketID int64, body string, public bool) (string, error)
	CreateTicket(ctx context.Context, params zendesk.CreateTicketParams) (*zendesk.Ticket, error)
	UpdateTicket(ctx context.Context, ticketID int64, fields map[string]any) (*zendesk.Ticket, error)
	GetUser(ctx context.Context, userID int64) (*zendesk.User, error)
	SearchUsersByEmail(ctx context.Context, email string) ([]zendesk.User, error)
	CreateUser(ctx context.Context, params zendesk.CreateUserParams) (*zendesk.User, error)
	GetUserTickets(ctx context.Context, userID int64, status string) ([]zendesk.Ticket, error)
	ListMacros(ctx context.Context, filters zendesk.MacroFilters) ([]zendesk.Macro, error)
	GetMacro(ctx context.Context, macroID int64) (*zendesk.Macro, error)
	ApplyMacroToTicket(ctx context.Context, ticketID, macroID int64) (*zendesk.MacroPreview, error)
}

// Server wires the tool/resource/prompt catalog onto an MCP server.
type Server struct {
	mcp    *server.MCPServer
	api    Backend
	cache  *kb.Cache
	logger *slog.Logger
}

// NewServer builds the MCP server and registers the full catalog.
func NewServer(api Backend, cache *kb.Cache, logger *slog.Logger) *Server {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions("This server provides access to Zendesk tickets, users, macros, and the help-center knowledge base. Use the tools to read and update tickets, the zendesk://knowledge-base resource for help-center content, and the analyze-ticket / draft-ticket-response prompts for common workflows."),
	)

	s := &Server{mcp: srv, api: api, cache: cache, logger: logger}
	registerTools(srv, api)
	registerResources(srv, s)
	registerPrompts(srv)
	return s
}

// ServeStdio runs the server over stdin/stdout until EOF. Stdout
// carries only protocol frames; logging stays on stderr.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcp)
}

func registerTools(srv *server.MCPServer, api Backend) {
	// ─── Tickets ─────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get_ticket",
			mcp.WithDescription("Retrieve a Zendesk ticket by its ID"),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("The ID of the ticket to retrieve"),
			),
		),
		handleGetTicket(api),
	)

	srv.AddTool(
		mcp.NewTool("create_ticket",
			mcp.WithDescription("Create a new Zendesk ticket"),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Ticket subject"),
			),
			mcp.WithString("description",
				mcp.Required(),
				mcp.Description("Ticket description (plain text). Also used as the initial comment."),
			),
			mcp.WithNumber("requester_id",
				mcp.Description("Requester user ID"),
			),
			mcp.WithNumber("assignee_id",
				mcp.Description("Assignee user ID"),
			),
			mcp.WithString("priority",
				mcp.Description("low, normal, high, urgent"),
			),
			mcp.WithString("type",
				mcp.Description("problem, incident, question, task"),
			),
			mcp.WithArray("tags",
				mcp.Description("Tags to set on the ticket"),
			),
			mcp.WithArray("custom_fields",
				mcp.Description("Custom field values as {id, value} objects"),
			),
		),
		handleCreateTicket(api),
	)

	srv.AddTool(
		mcp.NewTool("get_tickets",
			mcp.WithDescription("Fetch the latest tickets with pagination support"),
			mcp.WithNumber("page",
				mcp.Description("Page number (default: 1)"),
			),
			mcp.WithNumber("per_page",
				mcp.Description("Number of tickets per page (default: 25, max: 100)"),
			),
			mcp.WithString("sort_by",
				mcp.Description("Field to sort by: created_at, updated_at, priority, status (default: created_at)"),
			),
			mcp.WithString("sort_order",
				mcp.Description("Sort order: asc or desc (default: desc)"),
			),
		),
		handleGetTickets(api),
	)

	srv.AddTool(
		mcp.NewTool("get_ticket_comments",
			mcp.WithDescription("Retrieve all comments for a Zendesk ticket by its ID"),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("The ID of the ticket to get comments for"),
			),
		),
		handleGetTicketComments(api),
	)

	srv.AddTool(
		mcp.NewTool("create_ticket_comment",
			mcp.WithDescription("Create a new comment on an existing Zendesk ticket"),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("The ID of the ticket to comment on"),
			),
			mcp.WithString("comment",
				mcp.Required(),
				mcp.Description("The comment text/content to add"),
			),
			mcp.WithBoolean("public",
				mcp.Description("Whether the comment should be public (default: true)"),
			),
		),
		handleCreateTicketComment(api),
	)

	srv.AddTool(
		mcp.NewTool("update_ticket",
			mcp.WithDescription("Update fields on an existing Zendesk ticket (e.g., status, priority, assignee_id)"),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("The ID of the ticket to update"),
			),
			mcp.WithString("subject",
				mcp.Description("New subject"),
			),
			mcp.WithString("status",
				mcp.Description("new, open, pending, on-hold, solved, closed"),
			),
			mcp.WithString("priority",
				mcp.Description("low, normal, high, urgent"),
			),
			mcp.WithString("type",
				mcp.Description("problem, incident, question, task"),
			),
			mcp.WithNumber("assignee_id",
				mcp.Description("New assignee user ID"),
			),
			mcp.WithNumber("requester_id",
				mcp.Description("New requester user ID"),
			),
			mcp.WithArray("tags",
				mcp.Description("Replacement tag list"),
			),
			mcp.WithArray("custom_fields",
				mcp.Description("Custom field values as {id, value} objects"),
			),
			mcp.WithString("due_at",
				mcp.Description("ISO8601 datetime"),
			),
		),
		handleUpdateTicket(api),
	)

	// ─── Users ───────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get_user",
			mcp.WithDescription("Retrieve a Zendesk user by their ID"),
			mcp.WithNumber("user_id",
				mcp.Required(),
				mcp.Description("The ID of the user to retrieve"),
			),
		),
		handleGetUser(api),
	)

	srv.AddTool(
		mcp.NewTool("search_users_by_email",
			mcp.WithDescription("Search for Zendesk users by email address"),
			mcp.WithString("email",
				mcp.Required(),
				mcp.Description("Email address to search for (can be partial)"),
			),
		),
		handleSearchUsersByEmail(api),
	)

	srv.AddTool(
		mcp.NewTool("create_user",
			mcp.WithDescription("Create a new Zendesk user"),
			mcp.WithString("email",
				mcp.Required(),
				mcp.Description("User's email address"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("User's full name"),
			),
			mcp.WithString("role",
				mcp.Description("User role: end-user, agent, or admin (default: end-user)"),
			),
			mcp.WithString("phone",
				mcp.Description("User's phone number"),
			),
			mcp.WithNumber("organization_id",
				mcp.Description("ID of the organization this user belongs to"),
			),
		),
		handleCreateUser(api),
	)

	srv.AddTool(
		mcp.NewTool("get_user_tickets",
			mcp.WithDescription("Get all tickets requested by a specific user"),
			mcp.WithNumber("user_id",
				mcp.Required(),
				mcp.Description("The ID of the user"),
			),
			mcp.WithString("status",
				mcp.Description("Optional status filter: new, open, pending, solved, closed"),
			),
		),
		handleGetUserTickets(api),
	)

	// ─── Macros ──────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("list_macros",
			mcp.WithDescription("List all macros accessible to the current user"),
			mcp.WithString("access",
				mcp.Description("Filter by access level: personal, agents, shared, account"),
			),
			mcp.WithBoolean("active",
				mcp.Description("Filter by active status"),
			),
			mcp.WithNumber("category",
				mcp.Description("Filter by category ID"),
			),
		),
		handleListMacros(api),
	)

	srv.AddTool(
		mcp.NewTool("get_macro",
			mcp.WithDescription("Get a specific macro by its ID, including its actions"),
			mcp.WithNumber("macro_id",
				mcp.Required(),
				mcp.Description("The ID of the macro to retrieve"),
			),
		),
		handleGetMacro(api),
	)

	srv.AddTool(
		mcp.NewTool("apply_macro_to_ticket",
			mcp.WithDescription("Preview what changes a macro would make to a ticket. This does NOT apply the macro — use update_ticket with the returned fields to apply the changes."),
			mcp.WithNumber("ticket_id",
				mcp.Required(),
				mcp.Description("The ID of the ticket"),
			),
			mcp.WithNumber("macro_id",
				mcp.Required(),
				mcp.Description("The ID of the macro to preview"),
			),
		),
		handleApplyMacro(api),
	)
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleGetTicket(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID := intArg(req, "ticket_id", 0)
		if ticketID == 0 {
			return mcp.NewToolResultError("ticket_id is required"), nil
		}

		ticket, err := api.GetTicket(ctx, ticketID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(ticket)
	}
}

func handleCreateTicket(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subject, _ := req.GetArguments()["subject"].(string)
		description, _ := req.GetArguments()["description"].(string)
		if subject == "" || description == "" {
			return mcp.NewToolResultError("subject and description are required"), nil
		}

		params := zendesk.CreateTicketParams{
			Subject:      subject,
			Description:  description,
			RequesterID:  intArg(req, "requester_id", 0),
			AssigneeID:   intArg(req, "assignee_id", 0),
			Priority:     stringArg(req, "priority"),
			Type:         stringArg(req, "type"),
			Tags:         stringSliceArg(req, "tags"),
			CustomFields: customFieldsArg(req),
		}

		ticket, err := api.CreateTicket(ctx, params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"message": "Ticket created successfully",
			"ticket":  ticket,
		})
	}
}

func handleGetTickets(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		page := int(intArg(req, "page", 1))
		perPage := int(intArg(req, "per_page", 25))
		sortBy := stringArg(req, "sort_by")
		sortOrder := stringArg(req, "sort_order")

		tickets, err := api.ListTickets(ctx, page, perPage, sortBy, sortOrder)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(tickets)
	}
}

func handleGetTicketComments(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID := intArg(req, "ticket_id", 0)
		if ticketID == 0 {
			return mcp.NewToolResultError("ticket_id is required"), nil
		}

		comments, err := api.GetTicketComments(ctx, ticketID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(comments)
	}
}

func handleCreateTicketComment(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID := intArg(req, "ticket_id", 0)
		comment, _ := req.GetArguments()["comment"].(string)
		if ticketID == 0 || comment == "" {
			return mcp.NewToolResultError("ticket_id and comment are required"), nil
		}
		public := boolArg(req, "public", true)

		body, err := api.PostComment(ctx, ticketID, comment, public)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Comment created successfully: %s", body)), nil
	}
}

// updatableFields is the allowlist of ticket fields update_ticket will
// forward. Everything else in the arguments is ignored.
var updatableFields = []string{
	"subject", "status", "priority", "type",
	"assignee_id", "requester_id", "tags", "custom_fields", "due_at",
}

func handleUpdateTicket(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID := intArg(req, "ticket_id", 0)
		if ticketID == 0 {
			return mcp.NewToolResultError("ticket_id is required"), nil
		}

		fields := make(map[string]any)
		args := req.GetArguments()
		for _, key := range updatableFields {
			value, ok := args[key]
			if !ok || value == nil {
				continue
			}
			switch key {
			case "assignee_id", "requester_id":
				if n, ok := value.(float64); ok {
					fields[key] = int64(n)
				}
			default:
				fields[key] = value
			}
		}
		if len(fields) == 0 {
			return mcp.NewToolResultError("no fields to update"), nil
		}

		ticket, err := api.UpdateTicket(ctx, ticketID, fields)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"message": "Ticket updated successfully",
			"ticket":  ticket,
		})
	}
}

func handleGetUser(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := intArg(req, "user_id", 0)
		if userID == 0 {
			return mcp.NewToolResultError("user_id is required"), nil
		}

		user, err := api.GetUser(ctx, userID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(user)
	}
}

func handleSearchUsersByEmail(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		email, _ := req.GetArguments()["email"].(string)
		if email == "" {
			return mcp.NewToolResultError("email is required"), nil
		}

		users, err := api.SearchUsersByEmail(ctx, email)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"found": len(users),
			"users": users,
		})
	}
}

func handleCreateUser(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		email, _ := req.GetArguments()["email"].(string)
		name, _ := req.GetArguments()["name"].(string)
		if email == "" || name == "" {
			return mcp.NewToolResultError("email and name are required"), nil
		}

		user, err := api.CreateUser(ctx, zendesk.CreateUserParams{
			Email:          email,
			Name:           name,
			Role:           stringArg(req, "role"),
			Phone:          stringArg(req, "phone"),
			OrganizationID: intArg(req, "organization_id", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"message": "User created successfully",
			"user":    user,
		})
	}
}

func handleGetUserTickets(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := intArg(req, "user_id", 0)
		if userID == 0 {
			return mcp.NewToolResultError("user_id is required"), nil
		}

		tickets, err := api.GetUserTickets(ctx, userID, stringArg(req, "status"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"user_id": userID,
			"count":   len(tickets),
			"tickets": tickets,
		})
	}
}

func handleListMacros(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filters := zendesk.MacroFilters{
			Access:   stringArg(req, "access"),
			Category: intArg(req, "category", 0),
		}
		if value, ok := req.GetArguments()["active"].(bool); ok {
			filters.Active = &value
		}

		macros, err := api.ListMacros(ctx, filters)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"count":  len(macros),
			"macros": macros,
		})
	}
}

func handleGetMacro(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		macroID := intArg(req, "macro_id", 0)
		if macroID == 0 {
			return mcp.NewToolResultError("macro_id is required"), nil
		}

		macro, err := api.GetMacro(ctx, macroID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(macro)
	}
}

func handleApplyMacro(api Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID := intArg(req, "ticket_id", 0)
		macroID := intArg(req, "macro_id", 0)
		if ticketID == 0 || macroID == 0 {
			return mcp.NewToolResultError("ticket_id and macro_id are required"), nil
		}

		preview, err := api.ApplyMacroToTicket(ctx, ticketID, macroID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(preview)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// jsonResult serializes v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("serialize result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int64) int64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int64(v)
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func customFieldsArg(req mcp.CallToolRequest) []zendesk.CustomField {
	raw, ok := req.GetArguments()["custom_fields"].([]any)
	if !ok {
		return nil
	}
	out := make([]zendesk.CustomField, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field := zendesk.CustomField{Value: m["value"]}
		if id, ok := m["id"].(float64); ok {
			field.ID = int64(id)
		}
		out = append(out, field)
	}
	return out
}
