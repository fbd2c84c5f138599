package model

// Message statuses reported by the server.
const (
	StatusSent = "sent"
	StatusRead = "read"
)

// Message is a single chat message as returned by the history endpoint.
type Message struct {
	ID        ID     `json:"id"`
	SenderID  ID     `json:"sender_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// SentMessage is the server's echo of a message persisted over HTTP.
type SentMessage struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}
