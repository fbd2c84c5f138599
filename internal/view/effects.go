package view

import "github.com/johndosdos/chatter-client/internal/model"

// Effect describes I/O the reconciler wants performed. The caller runs it
// and reports the outcome back as a Msg.
type Effect interface {
	effect()
}

type (
	// FetchContacts loads the contact list.
	FetchContacts struct{}

	// FetchPicture loads the session user's profile picture.
	FetchPicture struct{}

	// FetchChatInfo loads the header of a chat.
	FetchChatInfo struct{ ChatID model.ID }

	// FetchHistory loads the messages of a chat.
	FetchHistory struct{ ChatID model.ID }

	// JoinChat subscribes the real-time channel to a chat room.
	JoinChat struct{ ChatID model.ID }

	// MarkRead marks a message as read on the server.
	MarkRead struct{ MessageID model.ID }

	// EmitStatus broadcasts a status change.
	EmitStatus struct {
		MessageID model.ID
		Status    string
	}

	// PostMessage persists a message over HTTP.
	PostMessage struct {
		ChatID   model.ID
		SenderID model.ID
		Content  string
	}

	// EmitSendMessage broadcasts a message over the real-time channel.
	EmitSendMessage struct {
		ChatID   model.ID
		SenderID model.ID
		Content  string
	}

	// EmitContactListUpdate tells peers to refresh their contact list.
	EmitContactListUpdate struct {
		ChatID        model.ID
		LatestMessage string
		ChatName      string
	}

	// PostContact adds a contact by username.
	PostContact struct{ Username string }

	// PostGroup creates a group chat.
	PostGroup struct {
		Name  string
		Users []string
	}

	// UploadPicture uploads the file at Path as the profile picture.
	UploadPicture struct{ Path string }

	// DeleteSession logs out.
	DeleteSession struct{}

	// Quit ends the program.
	Quit struct{}
)

func (FetchContacts) effect()         {}
func (FetchPicture) effect()          {}
func (FetchChatInfo) effect()         {}
func (FetchHistory) effect()          {}
func (JoinChat) effect()              {}
func (MarkRead) effect()              {}
func (EmitStatus) effect()            {}
func (PostMessage) effect()           {}
func (EmitSendMessage) effect()       {}
func (EmitContactListUpdate) effect() {}
func (PostContact) effect()           {}
func (PostGroup) effect()             {}
func (UploadPicture) effect()         {}
func (DeleteSession) effect()         {}
func (Quit) effect()                  {}
