package api

import (
	"context"
	"net/http"

	"github.com/johndosdos/chatter-client/internal/model"
)

// Login opens a session. The session cookie set by the server is kept in
// the client's cookie jar.
func (c *Client) Login(ctx context.Context, username, password string) (model.Identity, error) {
	in := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	var id model.Identity
	err := c.do(ctx, "login", http.MethodPost, "/api/v1/sessions", in, &id)
	return id, err
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodDelete, "/api/v1/sessions", nil, nil)
}
