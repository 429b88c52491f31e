package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Ticket is the flat record handed back to tool callers. Zendesk's
// wire tickets carry far more; this keeps the fields agents act on.
type Ticket struct {
	ID             int64    `json:"id"`
	Subject        string   `json:"subject"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority,omitempty"`
	Type           string   `json:"type,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	RequesterID    int64    `json:"requester_id,omitempty"`
	AssigneeID     int64    `json:"assignee_id,omitempty"`
	OrganizationID int64    `json:"organization_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Comment is a single ticket comment.
type Comment struct {
	ID        int64  `json:"id"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	HTMLBody  string `json:"html_body"`
	Public    bool   `json:"public"`
	CreatedAt string `json:"created_at"`
}

// TicketPage is one page of tickets plus offset-pagination info.
type TicketPage struct {
	Tickets      []Ticket `json:"tickets"`
	Page         int      `json:"page"`
	PerPage      int      `json:"per_page"`
	Count        int      `json:"count"`
	SortBy       string   `json:"sort_by"`
	SortOrder    string   `json:"sort_order"`
	HasMore      bool     `json:"has_more"`
	NextPage     *int     `json:"next_page"`
	PreviousPage *int     `json:"previous_page"`
}

// CustomField is a {id, value} pair on a ticket.
type CustomField struct {
	ID    int64 `json:"id"`
	Value any   `json:"value"`
}

// CreateTicketParams are the accepted fields for ticket creation.
// Description doubles as the ticket's first public comment; that is
// how Zendesk materializes the description field.
type CreateTicketParams struct {
	Subject      string
	Description  string
	RequesterID  int64
	AssigneeID   int64
	Priority     string
	Type         string
	Tags         []string
	CustomFields []CustomField
}

// GetTicket fetches a single ticket by ID.
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*Ticket, error) {
	var resp struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tickets/%d.json", ticketID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", ticketID, err)
	}
	return &resp.Ticket, nil
}

// ListTickets fetches one page of tickets. perPage is capped at 100,
// which is the API's hard limit.
func (c *Client) ListTickets(ctx context.Context, page, perPage int, sortBy, sortOrder string) (*TicketPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	if perPage > 100 {
		perPage = 100
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	if sortOrder == "" {
		sortOrder = "desc"
	}

	query := url.Values{
		"page":       {strconv.Itoa(page)},
		"per_page":   {strconv.Itoa(perPage)},
		"sort_by":    {sortBy},
		"sort_order": {sortOrder},
	}

	var resp struct {
		Tickets      []Ticket `json:"tickets"`
		NextPage     *string  `json:"next_page"`
		PreviousPage *string  `json:"previous_page"`
	}
	if err := c.get(ctx, "/tickets.json", query, &resp); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	result := &TicketPage{
		Tickets:   resp.Tickets,
		Page:      page,
		PerPage:   perPage,
		Count:     len(resp.Tickets),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		HasMore:   resp.NextPage != nil,
	}
	if resp.NextPage != nil {
		next := page + 1
		result.NextPage = &next
	}
	if resp.PreviousPage != nil && page > 1 {
		prev := page - 1
		result.PreviousPage = &prev
	}
	return result, nil
}

// GetTicketComments fetches all comments on a ticket.
func (c *Client) GetTicketComments(ctx context.Context, ticketID int64) ([]Comment, error) {
	var resp struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tickets/%d/comments.json", ticketID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get comments for ticket %d: %w", ticketID, err)
	}
	return resp.Comments, nil
}

// PostComment adds a comment to an existing ticket via ticket update
// and returns the comment body.
func (c *Client) PostComment(ctx context.Context, ticketID int64, body string, public bool) (string, error) {
	payload := map[string]any{
		"ticket": map[string]any{
			"comment": map[string]any{
				"html_body": body,
				"public":    public,
			},
		},
	}
	if err := c.put(ctx, fmt.Sprintf("/tickets/%d.json", ticketID), payload, nil); err != nil {
		return "", fmt.Errorf("post comment on ticket %d: %w", ticketID, err)
	}
	return body, nil
}

// CreateTicket creates a ticket and re-fetches it so the returned
// record is consistent with GetTicket output.
func (c *Client) CreateTicket(ctx context.Context, params CreateTicketParams) (*Ticket, error) {
	ticket := map[string]any{
		"subject": params.Subject,
		"comment": map[string]any{"body": params.Description},
	}
	if params.RequesterID != 0 {
		ticket["requester_id"] = params.RequesterID
	}
	if params.AssigneeID != 0 {
		ticket["assignee_id"] = params.AssigneeID
	}
	if params.Priority != "" {
		ticket["priority"] = params.Priority
	}
	if params.Type != "" {
		ticket["type"] = params.Type
	}
	if len(params.Tags) > 0 {
		ticket["tags"] = params.Tags
	}
	if len(params.CustomFields) > 0 {
		ticket["custom_fields"] = params.CustomFields
	}

	var resp struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := c.post(ctx, "/tickets.json", map[string]any{"ticket": ticket}, &resp); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	created, err := c.GetTicket(ctx, resp.Ticket.ID)
	if err != nil {
		// The ticket exists; return what the create call gave us.
		return &resp.Ticket, nil
	}
	return created, nil
}

// UpdateTicket applies the given fields to a ticket and re-fetches it.
// The update response carries an audit rather than the ticket, so the
// fresh fetch is what keeps the returned record trustworthy.
func (c *Client) UpdateTicket(ctx context.Context, ticketID int64, fields map[string]any) (*Ticket, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("update ticket %d: no fields to update", ticketID)
	}
	payload := map[string]any{"ticket": fields}
	if err := c.put(ctx, fmt.Sprintf("/tickets/%d.json", ticketID), payload, nil); err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", ticketID, err)
	}

	refreshed, err := c.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", ticketID, err)
	}
	return refreshed, nil
}
