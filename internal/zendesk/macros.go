package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Macro is a saved set of ticket field/comment changes.
type Macro struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Active      bool          `json:"active"`
	Actions     []MacroAction `json:"actions"`
	Restriction any           `json:"restriction,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// MacroAction is a single field change within a macro.
type MacroAction struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// MacroFilters narrow a macro listing. Zero values mean no filter.
type MacroFilters struct {
	Access   string // personal, agents, shared, account
	Active   *bool
	Category int64
}

// MacroPreview is the result of previewing a macro against a ticket.
// Nothing is applied; callers use update_ticket with the returned
// fields to make the changes real.
type MacroPreview struct {
	TicketChanges MacroTicketChanges `json:"ticket_changes"`
	Comment       *MacroComment      `json:"comment"`
	MacroID       int64              `json:"macro_id"`
	TicketID      int64              `json:"ticket_id"`
}

// MacroTicketChanges are the ticket fields a macro would set.
type MacroTicketChanges struct {
	Subject      string        `json:"subject,omitempty"`
	Status       string        `json:"status,omitempty"`
	Priority     string        `json:"priority,omitempty"`
	Type         string        `json:"type,omitempty"`
	AssigneeID   int64         `json:"assignee_id,omitempty"`
	GroupID      int64         `json:"group_id,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// MacroComment is the comment a macro would add.
type MacroComment struct {
	Body     string `json:"body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
	Public   bool   `json:"public"`
}

// ListMacros lists macros accessible to the current user.
func (c *Client) ListMacros(ctx context.Context, filters MacroFilters) ([]Macro, error) {
	query := url.Values{}
	if filters.Access != "" {
		query.Set("access", filters.Access)
	}
	if filters.Active != nil {
		query.Set("active", strconv.FormatBool(*filters.Active))
	}
	if filters.Category != 0 {
		query.Set("category", strconv.FormatInt(filters.Category, 10))
	}

	var resp struct {
		Macros []Macro `json:"macros"`
	}
	if err := c.get(ctx, "/macros.json", query, &resp); err != nil {
		return nil, fmt.Errorf("list macros: %w", err)
	}
	return resp.Macros, nil
}

// GetMacro fetches a single macro with its actions.
func (c *Client) GetMacro(ctx context.Context, macroID int64) (*Macro, error) {
	var resp struct {
		Macro Macro `json:"macro"`
	}
	if err := c.get(ctx, fmt.Sprintf("/macros/%d.json", macroID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get macro %d: %w", macroID, err)
	}
	return &resp.Macro, nil
}

// ApplyMacroToTicket previews what a macro would change on a ticket.
// The apply endpoint is read-only: it computes the resulting ticket
// without writing anything.
func (c *Client) ApplyMacroToTicket(ctx context.Context, ticketID, macroID int64) (*MacroPreview, error) {
	var resp struct {
		Result struct {
			Ticket struct {
				Subject      string        `json:"subject"`
				Status       string        `json:"status"`
				Priority     string        `json:"priority"`
				Type         string        `json:"type"`
				AssigneeID   int64         `json:"assignee_id"`
				GroupID      int64         `json:"group_id"`
				Tags         []string      `json:"tags"`
				CustomFields []CustomField `json:"custom_fields"`
			} `json:"ticket"`
			Comment *MacroComment `json:"comment"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/tickets/%d/macros/%d/apply.json", ticketID, macroID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("apply macro %d to ticket %d: %w", macroID, ticketID, err)
	}

	t := resp.Result.Ticket
	return &MacroPreview{
		TicketChanges: MacroTicketChanges{
			Subject:      t.Subject,
			Status:       t.Status,
			Priority:     t.Priority,
			Type:         t.Type,
			AssigneeID:   t.AssigneeID,
			GroupID:      t.GroupID,
			Tags:         t.Tags,
			CustomFields: t.CustomFields,
		},
		Comment:  resp.Result.Comment,
		MacroID:  macroID,
		TicketID: ticketID,
	}, nil
}
