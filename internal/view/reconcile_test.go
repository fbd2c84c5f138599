package view

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatter-client/internal/model"
)

type rejectErr string

func (e rejectErr) Error() string         { return "rejected: " + string(e) }
func (e rejectErr) ServerMessage() string { return string(e) }

const self model.ID = "u-self"

func newState(contacts ...model.Contact) *State {
	s := New(model.Identity{UserID: self, Username: "me"})
	s.Update(ContactsLoaded{Contacts: contacts})
	return s
}

func contactIDs(s *State) []model.ID {
	ids := make([]model.ID, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		ids = append(ids, c.ChatID)
	}
	return ids
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "hi", "hi"},
		{"exactly limit", "123456789012345", "123456789012345"},
		{"over limit", "1234567890123456", "123456789012345..."},
		{"multibyte", strings.Repeat("é", 16), strings.Repeat("é", 15) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input))
		})
	}
}

func TestContactsLoaded(t *testing.T) {
	s := newState(
		model.Contact{ChatID: "1", ChatName: "A", LatestMessage: "hi"},
		model.Contact{ChatID: "2", ChatName: "B"},
	)

	require.Len(t, s.Contacts, 2)
	assert.Equal(t, "hi", s.Contacts[0].Preview)
	assert.Equal(t, NoMessagesPreview, s.Contacts[1].Preview)

	// A full reload overwrites local edits.
	s.Update(ContactListUpdated{Event: model.ContactListUpdate{ChatID: "9", ChatName: "Z", LatestMessage: "x"}})
	require.Len(t, s.Contacts, 3)

	s.Update(ContactsLoaded{Contacts: []model.Contact{{ChatID: "1", ChatName: "A", LatestMessage: "hi"}}})
	assert.Equal(t, []model.ID{"1"}, contactIDs(s))
}

func TestContactsLoadedFailure(t *testing.T) {
	s := newState()

	s.Update(ContactsLoaded{Err: rejectErr("nope")})
	alert, ok := s.Alert()
	require.True(t, ok)
	assert.Equal(t, AlertContactsFailed, alert)

	s.Update(AlertDismissed{})
	s.Update(ContactsLoaded{Err: errors.New("connection refused")})
	_, ok = s.Alert()
	assert.False(t, ok, "transport failures are logged, not alerted")
}

func TestReconcileContactListExisting(t *testing.T) {
	s := newState(
		model.Contact{ChatID: "1", ChatName: "A", LatestMessage: "hi"},
		model.Contact{ChatID: "2", ChatName: "B", LatestMessage: "yo"},
		model.Contact{ChatID: "3", ChatName: "C", LatestMessage: "hey"},
	)

	effects := s.Update(ContactListUpdated{Event: model.ContactListUpdate{ChatID: "3", LatestMessage: "new"}})

	assert.Empty(t, effects)
	assert.Equal(t, []model.ID{"3", "1", "2"}, contactIDs(s))
	assert.Equal(t, "new", s.Contacts[0].Preview)
	assert.Equal(t, "C", s.Contacts[0].Name)
}

func TestReconcileContactListAbsent(t *testing.T) {
	s := newState()

	s.Update(ContactListUpdated{Event: model.ContactListUpdate{ChatID: "7", ChatName: "Bob", LatestMessage: "yo"}})

	require.Len(t, s.Contacts, 1)
	assert.Equal(t, model.ID("7"), s.Contacts[0].ChatID)
	assert.Equal(t, "Bob", s.Contacts[0].Name)
	assert.Equal(t, "yo", s.Contacts[0].Preview)

	s.Update(ContactListUpdated{Event: model.ContactListUpdate{ChatID: "8", ChatName: "Ann", LatestMessage: "hello"}})
	assert.Equal(t, []model.ID{"8", "7"}, contactIDs(s))
}

func TestReconcileContactItem(t *testing.T) {
	s := newState(model.Contact{ChatID: "1", ChatName: "A", LatestMessage: "hi"})

	s.Update(ContactItemUpdated{Event: model.ContactItemUpdate{
		ChatID:        "1",
		LatestMessage: "a much longer message than fifteen chars",
	}})

	require.Len(t, s.Contacts, 1)
	assert.Equal(t, "a much longer m...", s.Contacts[0].Preview)

	// Unknown chats are ignored.
	s.Update(ContactItemUpdated{Event: model.ContactItemUpdate{ChatID: "5", LatestMessage: "x"}})
	assert.Len(t, s.Contacts, 1)
}

func TestSelectChat(t *testing.T) {
	s := newState(model.Contact{ChatID: "1", ChatName: "A"})
	s.Messages = []Message{{ID: "old"}}

	effects := s.Update(SelectChat{ChatID: "1", Name: "A"})

	id, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, model.ID("1"), id)
	assert.Empty(t, s.Messages)
	assert.Equal(t, []Effect{
		JoinChat{ChatID: "1"},
		FetchChatInfo{ChatID: "1"},
		FetchHistory{ChatID: "1"},
	}, effects)

	s.Update(ChatInfoLoaded{ChatID: "1", Info: model.ChatInfo{Type: model.ChatGroup, Name: "Team"}})
	assert.True(t, s.Active.Group)
	assert.Equal(t, "Team", s.Active.Name)
}

func TestHistoryLoaded(t *testing.T) {
	s := newState(model.Contact{ChatID: "1", ChatName: "A"})
	s.Update(SelectChat{ChatID: "1", Name: "A"})

	effects := s.Update(HistoryLoaded{ChatID: "1", Messages: []model.Message{
		{ID: "10", SenderID: self, Content: "mine", Status: model.StatusSent},
		{ID: "11", SenderID: "u-a", Content: "theirs", Status: model.StatusSent},
		{ID: "12", SenderID: "u-a", Content: "already", Status: model.StatusRead},
	}})

	require.Len(t, s.Messages, 3)
	assert.Equal(t, SideSelf, s.Messages[0].Side)
	assert.Equal(t, SideOther, s.Messages[1].Side)
	assert.Equal(t, "already", s.Messages[2].Content)
	assert.Equal(t, []Effect{MarkRead{MessageID: "11"}}, effects)

	effects = s.Update(MarkedRead{MessageID: "11"})
	assert.Equal(t, model.StatusRead, s.Messages[1].Status)
	assert.Equal(t, []Effect{EmitStatus{MessageID: "11", Status: model.StatusRead}}, effects)
}

func TestMarkedReadFailureKeepsStatus(t *testing.T) {
	s := newState()
	s.Update(SelectChat{ChatID: "1"})
	s.Update(HistoryLoaded{ChatID: "1", Messages: []model.Message{{ID: "5", SenderID: "u-a", Status: model.StatusSent}}})

	effects := s.Update(MarkedRead{MessageID: "5", Err: errors.New("timeout")})

	assert.Empty(t, effects)
	assert.Equal(t, model.StatusSent, s.Messages[0].Status)
}

func TestHistoryForStaleChatDropped(t *testing.T) {
	s := newState()
	s.Update(SelectChat{ChatID: "1"})
	s.Update(SelectChat{ChatID: "2"})

	effects := s.Update(HistoryLoaded{ChatID: "1", Messages: []model.Message{{ID: "1", SenderID: "u-a"}}})

	assert.Empty(t, effects)
	assert.Empty(t, s.Messages)
}

func TestSendGuards(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		selected bool
	}{
		{"empty", "", true},
		{"whitespace", "  \n\t ", true},
		{"no chat", "hello", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(model.Contact{ChatID: "1", ChatName: "A"})
			if tt.selected {
				s.Update(SelectChat{ChatID: "1", Name: "A"})
			}
			assert.Empty(t, s.Update(SendRequested{Content: tt.content}))
		})
	}
}

func TestSend(t *testing.T) {
	s := newState(
		model.Contact{ChatID: "1", ChatName: "A"},
		model.Contact{ChatID: "2", ChatName: "B"},
	)
	s.Update(SelectChat{ChatID: "2", Name: "B"})

	effects := s.Update(SendRequested{Content: "  hello  "})
	assert.Equal(t, []Effect{
		PostMessage{ChatID: "2", SenderID: self, Content: "hello"},
		EmitSendMessage{ChatID: "2", SenderID: self, Content: "hello"},
		EmitContactListUpdate{ChatID: "2", LatestMessage: "hello", ChatName: "B"},
	}, effects)

	s.Update(MessagePosted{ChatID: "2", Message: model.SentMessage{ID: "40", Content: "hello", Status: model.StatusSent}})
	require.Len(t, s.Messages, 1)
	assert.Equal(t, SideSelf, s.Messages[0].Side)
	assert.Equal(t, []model.ID{"2", "1"}, contactIDs(s))

	// The live echo of the same message is not shown twice.
	effects = s.Update(MessageReceived{Event: model.ReceivedMessage{
		ChatID: "2", SenderID: self, Content: "hello", Status: model.StatusSent, MessageID: "40",
	}})
	assert.Empty(t, effects)
	assert.Len(t, s.Messages, 1)
}

func TestMessageReceived(t *testing.T) {
	s := newState(
		model.Contact{ChatID: "1", ChatName: "A"},
		model.Contact{ChatID: "2", ChatName: "B"},
	)
	s.Update(SelectChat{ChatID: "1", Name: "A"})

	t.Run("inactive chat updates preview only", func(t *testing.T) {
		effects := s.Update(MessageReceived{Event: model.ReceivedMessage{
			ChatID: "2", SenderID: "u-b", Content: "ping", Status: model.StatusSent, MessageID: "7",
		}})
		assert.Empty(t, effects)
		assert.Empty(t, s.Messages)
		assert.Equal(t, []model.ID{"2", "1"}, contactIDs(s))
		assert.Equal(t, "ping", s.Contacts[0].Preview)
	})

	t.Run("active chat appends and marks read", func(t *testing.T) {
		effects := s.Update(MessageReceived{Event: model.ReceivedMessage{
			ChatID: "1", SenderID: "u-a", Content: "hello there", Status: model.StatusSent, MessageID: "8",
		}})
		require.Len(t, s.Messages, 1)
		assert.Equal(t, SideOther, s.Messages[0].Side)
		assert.Equal(t, []Effect{MarkRead{MessageID: "8"}}, effects)
		assert.Equal(t, []model.ID{"1", "2"}, contactIDs(s))
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		effects := s.Update(MessageReceived{Event: model.ReceivedMessage{
			ChatID: "1", SenderID: "u-a", Content: "hello there", Status: model.StatusSent, MessageID: "8",
		}})
		assert.Empty(t, effects)
		assert.Len(t, s.Messages, 1)
	})

	t.Run("messages without id dedup on content", func(t *testing.T) {
		ev := model.ReceivedMessage{ChatID: "1", SenderID: "u-a", Content: "no id", Timestamp: "12:00"}
		s.Update(MessageReceived{Event: ev})
		s.Update(MessageReceived{Event: ev})
		assert.Len(t, s.Messages, 2)
	})
}

func TestProfilePictureUpdated(t *testing.T) {
	s := newState()

	s.Update(ProfilePictureUpdated{Event: model.ProfilePictureUpdate{UserUUID: "someone-else", ProfilePicture: "AAA"}})
	assert.Empty(t, s.Avatar)

	s.Update(ProfilePictureUpdated{Event: model.ProfilePictureUpdate{UserUUID: self, ProfilePicture: "BBB"}})
	assert.Equal(t, "BBB", s.Avatar)
}

func TestAddContact(t *testing.T) {
	s := newState()
	s.Update(OpenPopup{Popup: PopupAddContact})

	assert.Empty(t, s.Update(AddContactRequested{Username: "   "}))
	assert.Equal(t, []Effect{PostContact{Username: "bob"}}, s.Update(AddContactRequested{Username: " bob "}))

	s.Update(ContactAdded{Err: rejectErr("User not found.")})
	alert, _ := s.Alert()
	assert.Equal(t, "User not found.", alert)
	assert.Equal(t, PopupAddContact, s.Popup)

	effects := s.Update(ContactAdded{})
	assert.Equal(t, []Effect{FetchContacts{}}, effects)
	assert.Equal(t, PopupNone, s.Popup)
}

func TestCreateGroup(t *testing.T) {
	s := newState()
	s.Update(OpenPopup{Popup: PopupCreateGroup})

	assert.Empty(t, s.Update(CreateGroupRequested{Name: "team"}), "no users drafted")

	s.Update(DraftUserAdded{Username: "ann"})
	s.Update(DraftUserAdded{Username: "ann"})
	s.Update(DraftUserAdded{Username: " "})
	s.Update(DraftUserAdded{Username: "bob"})
	assert.Equal(t, []string{"ann", "bob"}, s.GroupDraft)

	assert.Empty(t, s.Update(CreateGroupRequested{Name: ""}))
	effects := s.Update(CreateGroupRequested{Name: "team"})
	assert.Equal(t, []Effect{PostGroup{Name: "team", Users: []string{"ann", "bob"}}}, effects)

	s.Update(GroupCreated{})
	assert.Empty(t, s.GroupDraft)
	assert.Equal(t, PopupNone, s.Popup)
}

func TestCancelGroupClearsDraft(t *testing.T) {
	s := newState()
	s.Update(OpenPopup{Popup: PopupCreateGroup})
	s.Update(DraftUserAdded{Username: "ann"})

	s.Update(ClosePopup{})

	assert.Empty(t, s.GroupDraft)
	assert.Equal(t, PopupNone, s.Popup)
}

func TestPictureChosen(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		size        int64
		wantAlert   string
		wantEffects []Effect
	}{
		{"no file", "", 0, AlertNoFile, nil},
		{"two mebibytes", "big.png", 2 << 20, AlertFileTooLarge, nil},
		{"at limit", "ok.png", MaxPictureSize, "", []Effect{UploadPicture{Path: "ok.png"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			effects := s.Update(PictureChosen{Path: tt.path, Size: tt.size})

			assert.Equal(t, tt.wantEffects, effects)
			alert, _ := s.Alert()
			assert.Equal(t, tt.wantAlert, alert)
		})
	}
}

func TestPictureUploaded(t *testing.T) {
	s := newState()
	s.Update(OpenPopup{Popup: PopupSettings})

	effects := s.Update(PictureUploaded{URL: "/static/p.png"})

	assert.Equal(t, []Effect{FetchPicture{}}, effects)
	assert.Equal(t, PopupNone, s.Popup)
	alert, _ := s.Alert()
	assert.Equal(t, AlertPictureUploaded, alert)
}

func TestFilter(t *testing.T) {
	s := newState(
		model.Contact{ChatID: "1", ChatName: "Alice"},
		model.Contact{ChatID: "2", ChatName: "Bob"},
		model.Contact{ChatID: "3", ChatName: "alina"},
	)

	s.Update(FilterChanged{Term: "ALI"})

	visible := s.VisibleContacts()
	require.Len(t, visible, 2)
	assert.Equal(t, "Alice", visible[0].Name)
	assert.Equal(t, "alina", visible[1].Name)
	assert.Len(t, s.Contacts, 3)
}

func TestLogout(t *testing.T) {
	s := newState(model.Contact{ChatID: "1", ChatName: "A"})

	assert.Equal(t, []Effect{DeleteSession{}}, s.Update(LogoutRequested{}))
	assert.Empty(t, s.Update(LoggedOut{Err: errors.New("boom")}))
	assert.Equal(t, []Effect{Quit{}}, s.Update(LoggedOut{}))
	assert.Empty(t, s.Contacts, "logging out clears the view")
}

func TestReset(t *testing.T) {
	s := newState(model.Contact{ChatID: "1", ChatName: "A"})
	s.Update(SelectChat{ChatID: "1"})

	s.Reset()

	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Empty(t, s.Contacts)
	assert.Equal(t, self, s.Session.UserID)
}
