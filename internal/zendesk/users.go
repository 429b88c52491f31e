package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// User is the flat user record returned to tool callers.
type User struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	Phone          string   `json:"phone,omitempty"`
	OrganizationID int64    `json:"organization_id,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
	TimeZone       string   `json:"time_zone,omitempty"`
	Locale         string   `json:"locale,omitempty"`
	Active         bool     `json:"active"`
	Verified       bool     `json:"verified,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// CreateUserParams are the accepted fields for user creation.
type CreateUserParams struct {
	Email          string
	Name           string
	Role           string
	Phone          string
	OrganizationID int64
	TimeZone       string
	Locale         string
}

// GetUser fetches a single user by ID.
func (c *Client) GetUser(ctx context.Context, userID int64) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, fmt.Sprintf("/users/%d.json", userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &resp.User, nil
}

// CurrentUser fetches the user the credentials authenticate as. The
// check command uses this to verify connectivity.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/users/me.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &resp.User, nil
}

// SearchUsersByEmail searches users by email address. Partial matches
// are supported; /users/search matches name and email substrings.
func (c *Client) SearchUsersByEmail(ctx context.Context, email string) ([]User, error) {
	query := url.Values{"query": {email}}
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.get(ctx, "/users/search.json", query, &resp); err != nil {
		return nil, fmt.Errorf("search users by email %q: %w", email, err)
	}
	return resp.Users, nil
}

// CreateUser creates a new user. Role defaults to end-user.
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	role := params.Role
	if role == "" {
		role = "end-user"
	}
	user := map[string]any{
		"email": params.Email,
		"name":  params.Name,
		"role":  role,
	}
	if params.Phone != "" {
		user["phone"] = params.Phone
	}
	if params.OrganizationID != 0 {
		user["organization_id"] = params.OrganizationID
	}
	if params.TimeZone != "" {
		user["time_zone"] = params.TimeZone
	}
	if params.Locale != "" {
		user["locale"] = params.Locale
	}

	var resp struct {
		User User `json:"user"`
	}
	if err := c.post(ctx, "/users.json", map[string]any{"user": user}, &resp); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &resp.User, nil
}

// GetUserTickets returns all tickets requested by a user, optionally
// filtered by status, via the search API.
func (c *Client) GetUserTickets(ctx context.Context, userID int64, status string) ([]Ticket, error) {
	search := "type:ticket requester:" + strconv.FormatInt(userID, 10)
	if status != "" {
		search += " status:" + status
	}

	query := url.Values{"query": {search}}
	var resp struct {
		Results []Ticket `json:"results"`
	}
	if err := c.get(ctx, "/search.json", query, &resp); err != nil {
		return nil, fmt.Errorf("get tickets for user %d: %w", userID, err)
	}
	return resp.Results, nil
}
