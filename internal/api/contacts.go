package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/johndosdos/chatter-client/internal/model"
)

// Contacts returns the contact list in server order.
func (c *Client) Contacts(ctx context.Context) ([]model.Contact, error) {
	var res struct {
		Contacts []model.Contact `json:"contacts"`
	}
	if err := c.do(ctx, "list contacts", http.MethodGet, "/api/v1/contacts", nil, &res); err != nil {
		return nil, err
	}
	return res.Contacts, nil
}

// AddContact adds a direct chat with the given user.
func (c *Client) AddContact(ctx context.Context, username string) error {
	in := struct {
		Username string `json:"username"`
	}{username}
	return c.do(ctx, "add contact", http.MethodPost, "/api/v1/contacts", in, nil)
}

// CreateGroup creates a group chat with the given members.
func (c *Client) CreateGroup(ctx context.Context, name string, users []string) error {
	in := struct {
		Name  string   `json:"name"`
		Users []string `json:"users"`
	}{name, users}
	return c.do(ctx, "create group", http.MethodPost, "/api/v1/group_chats", in, nil)
}

// Chat returns the header information of a chat.
func (c *Client) Chat(ctx context.Context, chatID model.ID) (model.ChatInfo, error) {
	var info model.ChatInfo
	err := c.do(ctx, "get chat", http.MethodGet, "/api/v1/chats/"+url.PathEscape(chatID.String()), nil, &info)
	return info, err
}
