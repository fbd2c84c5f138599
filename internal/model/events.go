package model

import "encoding/json"

// Real-time event names.
const (
	EventJoinChat             = "join_chat"
	EventSendMessage          = "send_message"
	EventStatusUpdate         = "status_update"
	EventUpdateContactList    = "update_contact_list"
	EventReceiveMessage       = "receive_message"
	EventUpdateContactItem    = "update_contact_item"
	EventUpdateProfilePicture = "update_profile_picture"
	EventUserConnected        = "user_connected"
)

// Envelope is a single real-time frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinChat asks the server to subscribe the connection to a chat room.
type JoinChat struct {
	ChatID ID `json:"chat_id"`
}

// SendMessage broadcasts a message live.
type SendMessage struct {
	ChatID   ID     `json:"chat_id"`
	SenderID ID     `json:"sender_id"`
	Content  string `json:"content"`
}

// StatusUpdate notifies peers that a message changed status.
type StatusUpdate struct {
	MessageID ID     `json:"messageId"`
	Status    string `json:"status"`
}

// ContactListUpdate carries the latest message of a chat, in both
// directions.
type ContactListUpdate struct {
	ChatID        ID     `json:"chat_id"`
	LatestMessage string `json:"latest_message"`
	ChatName      string `json:"chat_name"`
}

// ContactItemUpdate refreshes the preview of an existing contact.
type ContactItemUpdate struct {
	ChatID        ID     `json:"chat_id"`
	LatestMessage string `json:"latest_message"`
}

// ReceivedMessage is a message pushed by the server.
type ReceivedMessage struct {
	ChatID    ID     `json:"chat_id"`
	SenderID  ID     `json:"sender_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	MessageID ID     `json:"message_id"`
}

// ProfilePictureUpdate announces a new avatar for a user.
type ProfilePictureUpdate struct {
	UserUUID       ID     `json:"user_uuid"`
	ProfilePicture string `json:"profile_picture"`
}

// UserConnected announces that a user joined a room. The server sends it
// to the joining connection too, which makes it a join acknowledgement.
type UserConnected struct {
	UUID ID `json:"uuid"`
}
