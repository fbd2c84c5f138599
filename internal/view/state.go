// Package view holds the client's view state and the reconciler that
// applies user actions, I/O results and real-time events to it.
//
// The reconciler never performs I/O. Each call to Update returns the
// effects the caller must run; their outcomes come back as messages. All
// messages go through one queue, so updates never interleave.
package view

import (
	"strings"

	"github.com/johndosdos/chatter-client/internal/model"
)

// MaxPictureSize is the upload ceiling for profile pictures (1 MiB).
const MaxPictureSize = 1 << 20

// Alert texts shown by the reconciler itself.
const (
	AlertContactsFailed  = "Error loading contacts."
	AlertNoFile          = "No file selected."
	AlertFileTooLarge    = "File size exceeds 1MB limit."
	AlertPictureUploaded = "Profile picture uploaded successfully!"
)

// NoMessagesPreview is shown for contacts without a latest message.
const NoMessagesPreview = "No messages yet"

// Side tells whether a message was written by the viewer.
type Side string

const (
	SideSelf  Side = "self"
	SideOther Side = "other"
)

// Popup is the overlay currently shown. Opening one replaces any other.
type Popup int

const (
	PopupNone Popup = iota
	PopupAddContact
	PopupCreateGroup
	PopupSettings
)

// Contact is a rendered contact list entry.
type Contact struct {
	ChatID    model.ID
	Name      string
	Avatar    string
	Preview   string
	Timestamp string
}

// Message is a rendered message of the active chat.
type Message struct {
	ID        model.ID
	SenderID  model.ID
	Content   string
	Timestamp string
	Status    string
	Side      Side
}

// ActiveChat is the selected chat.
type ActiveChat struct {
	ID    model.ID
	Name  string
	Group bool
}

// State is the whole client view. The zero value is not usable; create
// one with New.
type State struct {
	Session model.Identity

	// Active is nil until the first chat is selected.
	Active *ActiveChat

	// Contacts is ordered most recently updated first.
	Contacts []Contact

	// Messages belong to Active.
	Messages []Message

	GroupDraft []string
	Avatar     string
	Filter     string
	Popup      Popup
	Alerts     []string

	seen map[string]struct{}
}

// New returns the view state for a session.
func New(session model.Identity) *State {
	return &State{
		Session: session,
		seen:    make(map[string]struct{}),
	}
}

// Reset discards everything but the session identity.
func (s *State) Reset() {
	*s = State{
		Session: s.Session,
		seen:    make(map[string]struct{}),
	}
}

// Selected reports whether a chat is selected and returns its ID.
func (s *State) Selected() (model.ID, bool) {
	if s.Active == nil {
		return "", false
	}
	return s.Active.ID, true
}

// ContactIndex returns the position of a chat in the contact list, or -1.
func (s *State) ContactIndex(chatID model.ID) int {
	for i, c := range s.Contacts {
		if c.ChatID == chatID {
			return i
		}
	}
	return -1
}

// VisibleContacts returns the contacts whose name matches the search
// filter, case-insensitively.
func (s *State) VisibleContacts() []Contact {
	term := strings.ToLower(strings.TrimSpace(s.Filter))
	if term == "" {
		return s.Contacts
	}

	visible := make([]Contact, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		if strings.Contains(strings.ToLower(c.Name), term) {
			visible = append(visible, c)
		}
	}
	return visible
}

// Alert returns the oldest pending alert.
func (s *State) Alert() (string, bool) {
	if len(s.Alerts) == 0 {
		return "", false
	}
	return s.Alerts[0], true
}

func (s *State) alert(text string) {
	s.Alerts = append(s.Alerts, text)
}

// moveToTop relocates the contact at index i to the head of the list.
func (s *State) moveToTop(i int) {
	if i <= 0 {
		return
	}
	c := s.Contacts[i]
	copy(s.Contacts[1:i+1], s.Contacts[:i])
	s.Contacts[0] = c
}

func (s *State) prepend(c Contact) {
	s.Contacts = append([]Contact{c}, s.Contacts...)
}

// dedupKey identifies a message in the pane. Server IDs win; messages
// without one fall back to sender, content and timestamp.
func dedupKey(m Message) string {
	if !m.ID.IsZero() {
		return "id:" + m.ID.String()
	}
	return "sig:" + m.SenderID.String() + "\x00" + m.Content + "\x00" + m.Timestamp
}

// appendMessage adds m to the pane unless it is already shown.
func (s *State) appendMessage(m Message) bool {
	key := dedupKey(m)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.Messages = append(s.Messages, m)
	return true
}

func (s *State) sideOf(sender model.ID) Side {
	if sender == s.Session.UserID {
		return SideSelf
	}
	return SideOther
}

// needsRead reports whether displaying m must mark it read.
func needsRead(m Message) bool {
	return m.Side == SideOther && m.Status != model.StatusRead && !m.ID.IsZero()
}
