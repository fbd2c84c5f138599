package view

import "github.com/johndosdos/chatter-client/internal/model"

// Msg is an input to the reconciler: a user action, an I/O result or a
// real-time event.
type Msg interface {
	msg()
}

// User actions.
type (
	Started         struct{}
	RefreshContacts struct{}
	SelectChat      struct {
		ChatID model.ID
		Name   string
	}
	SendRequested        struct{ Content string }
	OpenPopup            struct{ Popup Popup }
	ClosePopup           struct{}
	AddContactRequested  struct{ Username string }
	DraftUserAdded       struct{ Username string }
	CreateGroupRequested struct{ Name string }

	// PictureChosen reports the file picked for upload. An empty Path
	// means no file was chosen.
	PictureChosen struct {
		Path string
		Size int64
	}
	FilterChanged   struct{ Term string }
	LogoutRequested struct{}
	AlertDismissed  struct{}
)

// I/O results.
type (
	ContactsLoaded struct {
		Contacts []model.Contact
		Err      error
	}
	ChatInfoLoaded struct {
		ChatID model.ID
		Info   model.ChatInfo
		Err    error
	}
	HistoryLoaded struct {
		ChatID   model.ID
		Messages []model.Message
		Err      error
	}
	MarkedRead struct {
		MessageID model.ID
		Err       error
	}
	MessagePosted struct {
		ChatID  model.ID
		Message model.SentMessage
		Err     error
	}
	ContactAdded    struct{ Err error }
	GroupCreated    struct{ Err error }
	PictureUploaded struct {
		URL string
		Err error
	}
	PictureLoaded struct {
		Picture string
		Err     error
	}
	LoggedOut struct{ Err error }
)

// Real-time events.
type (
	ContactListUpdated    struct{ Event model.ContactListUpdate }
	ContactItemUpdated    struct{ Event model.ContactItemUpdate }
	MessageReceived       struct{ Event model.ReceivedMessage }
	ProfilePictureUpdated struct{ Event model.ProfilePictureUpdate }
)

func (Started) msg()               {}
func (RefreshContacts) msg()       {}
func (SelectChat) msg()            {}
func (SendRequested) msg()         {}
func (OpenPopup) msg()             {}
func (ClosePopup) msg()            {}
func (AddContactRequested) msg()   {}
func (DraftUserAdded) msg()        {}
func (CreateGroupRequested) msg()  {}
func (PictureChosen) msg()         {}
func (FilterChanged) msg()         {}
func (LogoutRequested) msg()       {}
func (AlertDismissed) msg()        {}
func (ContactsLoaded) msg()        {}
func (ChatInfoLoaded) msg()        {}
func (HistoryLoaded) msg()         {}
func (MarkedRead) msg()            {}
func (MessagePosted) msg()         {}
func (ContactAdded) msg()          {}
func (GroupCreated) msg()          {}
func (PictureUploaded) msg()       {}
func (PictureLoaded) msg()         {}
func (LoggedOut) msg()             {}
func (ContactListUpdated) msg()    {}
func (ContactItemUpdated) msg()    {}
func (MessageReceived) msg()       {}
func (ProfilePictureUpdated) msg() {}
