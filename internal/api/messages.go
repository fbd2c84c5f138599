package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/johndosdos/chatter-client/internal/model"
)

// Messages returns the history of a chat, oldest first.
func (c *Client) Messages(ctx context.Context, chatID model.ID) ([]model.Message, error) {
	var res struct {
		Messages []model.Message `json:"messages"`
	}
	path := "/api/v1/messages/" + url.PathEscape(chatID.String())
	if err := c.do(ctx, "list messages", http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// SendMessage persists a message.
func (c *Client) SendMessage(ctx context.Context, chatID, senderID model.ID, content string) (model.SentMessage, error) {
	in := struct {
		ChatID   model.ID `json:"chat_id"`
		SenderID model.ID `json:"sender_id"`
		Content  string   `json:"content"`
	}{chatID, senderID, content}

	var sent model.SentMessage
	err := c.do(ctx, "send message", http.MethodPost, "/api/v1/messages", in, &sent)
	return sent, err
}

// MarkRead marks a message as read by the session user.
func (c *Client) MarkRead(ctx context.Context, messageID model.ID) error {
	in := struct {
		MessageID model.ID `json:"message_id"`
	}{messageID}
	return c.do(ctx, "mark read", http.MethodPost, "/api/v1/messages/read", in, nil)
}
