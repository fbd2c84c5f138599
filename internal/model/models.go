// Package model defines the data exchanged with the chat server.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a chat, message or user. The server sends identifiers
// either as JSON numbers or as strings; both decode to the same ID.
type ID string

// String returns the identifier as text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(p []byte) error {
	p = bytes.TrimSpace(p)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		*id = ""
		return nil
	}

	if p[0] == '"' {
		var s string
		if err := json.Unmarshal(p, &s); err != nil {
			return fmt.Errorf("model: invalid id %s: %w", p, err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(p, &n); err != nil {
		return fmt.Errorf("model: invalid id %s: %w", p, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as JSON numbers and everything
// else, such as "007" or "+5", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Chat types.
const (
	ChatDirect = "direct"
	ChatGroup  = "group"
)

// Contact is one entry of the contact list endpoint.
type Contact struct {
	ChatID                 ID     `json:"chat_id"`
	ChatName               string `json:"chat_name"`
	ProfilePicture         string `json:"profile_picture,omitempty"`
	LatestMessage          string `json:"latest_message,omitempty"`
	LatestMessageTimestamp string `json:"latest_message_timestamp,omitempty"`
}

// ChatInfo describes a chat for the header.
type ChatInfo struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Identity is the logged in user.
type Identity struct {
	UserID   ID     `json:"user_id"`
	Username string `json:"username"`
}
