package view

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal/model"
)

// rejection is implemented by errors carrying a server-supplied message
// from a `success: false` response.
type rejection interface {
	error
	ServerMessage() string
}

func rejected(err error) (string, bool) {
	var r rejection
	if errors.As(err, &r) {
		return r.ServerMessage(), true
	}
	return "", false
}

// Update applies msg to the state and returns the effects to run, in
// order.
func (s *State) Update(msg Msg) []Effect {
	switch msg := msg.(type) {
	case Started:
		return []Effect{FetchContacts{}, FetchPicture{}}

	case RefreshContacts:
		return []Effect{FetchContacts{}}

	case ContactsLoaded:
		return s.contactsLoaded(msg)

	case SelectChat:
		return s.selectChat(msg)

	case ChatInfoLoaded:
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Str("chat_id", msg.ChatID.String()).Msg("failed to fetch chat")
			return nil
		}
		if s.Active != nil && s.Active.ID == msg.ChatID {
			if msg.Info.Name != "" {
				s.Active.Name = msg.Info.Name
			}
			s.Active.Group = msg.Info.Type == model.ChatGroup
		}
		return nil

	case HistoryLoaded:
		return s.historyLoaded(msg)

	case MarkedRead:
		return s.markedRead(msg)

	case SendRequested:
		return s.send(msg)

	case MessagePosted:
		return s.messagePosted(msg)

	case ContactListUpdated:
		s.reconcileContactList(msg.Event)
		return nil

	case ContactItemUpdated:
		if i := s.ContactIndex(msg.Event.ChatID); i >= 0 {
			s.Contacts[i].Preview = Truncate(msg.Event.LatestMessage)
			s.moveToTop(i)
		}
		return nil

	case MessageReceived:
		return s.messageReceived(msg.Event)

	case ProfilePictureUpdated:
		if msg.Event.UserUUID == s.Session.UserID {
			s.Avatar = msg.Event.ProfilePicture
		}
		return nil

	case OpenPopup:
		s.Popup = msg.Popup
		return nil

	case ClosePopup:
		if s.Popup == PopupCreateGroup {
			s.GroupDraft = nil
		}
		s.Popup = PopupNone
		return nil

	case AddContactRequested:
		username := strings.TrimSpace(msg.Username)
		if username == "" {
			return nil
		}
		return []Effect{PostContact{Username: username}}

	case ContactAdded:
		if !s.handleFailure(msg.Err, "failed to add contact") {
			return nil
		}
		s.Popup = PopupNone
		return []Effect{FetchContacts{}}

	case DraftUserAdded:
		s.addDraftUser(msg.Username)
		return nil

	case CreateGroupRequested:
		name := strings.TrimSpace(msg.Name)
		if name == "" || len(s.GroupDraft) == 0 {
			return nil
		}
		users := make([]string, len(s.GroupDraft))
		copy(users, s.GroupDraft)
		return []Effect{PostGroup{Name: name, Users: users}}

	case GroupCreated:
		if !s.handleFailure(msg.Err, "failed to create group chat") {
			return nil
		}
		s.Popup = PopupNone
		s.GroupDraft = nil
		return []Effect{FetchContacts{}}

	case PictureChosen:
		switch {
		case msg.Path == "":
			s.alert(AlertNoFile)
			return nil
		case msg.Size > MaxPictureSize:
			s.alert(AlertFileTooLarge)
			return nil
		}
		return []Effect{UploadPicture{Path: msg.Path}}

	case PictureUploaded:
		if !s.handleFailure(msg.Err, "failed to upload profile picture") {
			return nil
		}
		s.alert(AlertPictureUploaded)
		s.Popup = PopupNone
		return []Effect{FetchPicture{}}

	case PictureLoaded:
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Msg("failed to fetch profile picture")
			s.Avatar = ""
			return nil
		}
		s.Avatar = msg.Picture
		return nil

	case FilterChanged:
		s.Filter = msg.Term
		return nil

	case LogoutRequested:
		return []Effect{DeleteSession{}}

	case LoggedOut:
		if msg.Err != nil {
			log.Error().Err(msg.Err).Msg("failed to log out")
			return nil
		}
		s.Reset()
		return []Effect{Quit{}}

	case AlertDismissed:
		if len(s.Alerts) > 0 {
			s.Alerts = s.Alerts[1:]
		}
		return nil
	}

	return nil
}

// handleFailure reports whether err is nil. Rejections become alerts
// carrying the server's message; anything else is only logged.
func (s *State) handleFailure(err error, what string) bool {
	if err == nil {
		return true
	}
	if text, ok := rejected(err); ok {
		s.alert(text)
		return false
	}
	log.Error().Err(err).Msg(what)
	return false
}

func (s *State) contactsLoaded(msg ContactsLoaded) []Effect {
	if msg.Err != nil {
		if _, ok := rejected(msg.Err); ok {
			s.alert(AlertContactsFailed)
			return nil
		}
		log.Error().Err(msg.Err).Msg("failed to fetch contacts")
		return nil
	}

	contacts := make([]Contact, 0, len(msg.Contacts))
	for _, c := range msg.Contacts {
		preview := c.LatestMessage
		if preview == "" {
			preview = NoMessagesPreview
		}
		contacts = append(contacts, Contact{
			ChatID:    c.ChatID,
			Name:      c.ChatName,
			Avatar:    c.ProfilePicture,
			Preview:   Truncate(preview),
			Timestamp: c.LatestMessageTimestamp,
		})
	}
	s.Contacts = contacts
	return nil
}

func (s *State) selectChat(msg SelectChat) []Effect {
	s.Active = &ActiveChat{ID: msg.ChatID, Name: msg.Name}
	s.Messages = nil
	s.seen = make(map[string]struct{})

	return []Effect{
		JoinChat{ChatID: msg.ChatID},
		FetchChatInfo{ChatID: msg.ChatID},
		FetchHistory{ChatID: msg.ChatID},
	}
}

func (s *State) historyLoaded(msg HistoryLoaded) []Effect {
	if msg.Err != nil {
		log.Error().Err(msg.Err).Str("chat_id", msg.ChatID.String()).Msg("failed to fetch messages")
		return nil
	}

	// A slow response for a chat the user already left must not leak
	// into the current pane.
	if s.Active == nil || s.Active.ID != msg.ChatID {
		log.Debug().Str("chat_id", msg.ChatID.String()).Msg("dropping history for inactive chat")
		return nil
	}

	var effects []Effect
	for _, m := range msg.Messages {
		shown := Message{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Status:    m.Status,
			Side:      s.sideOf(m.SenderID),
		}
		if s.appendMessage(shown) && needsRead(shown) {
			effects = append(effects, MarkRead{MessageID: shown.ID})
		}
	}
	return effects
}

func (s *State) markedRead(msg MarkedRead) []Effect {
	if msg.Err != nil {
		log.Error().Err(msg.Err).Str("message_id", msg.MessageID.String()).Msg("failed to mark message as read")
		return nil
	}

	for i := range s.Messages {
		if s.Messages[i].ID == msg.MessageID && s.Messages[i].Side == SideOther {
			s.Messages[i].Status = model.StatusRead
			break
		}
	}
	return []Effect{EmitStatus{MessageID: msg.MessageID, Status: model.StatusRead}}
}

func (s *State) send(msg SendRequested) []Effect {
	content := strings.TrimSpace(msg.Content)
	if content == "" || s.Active == nil {
		return nil
	}

	chat := s.Active
	return []Effect{
		PostMessage{ChatID: chat.ID, SenderID: s.Session.UserID, Content: content},
		EmitSendMessage{ChatID: chat.ID, SenderID: s.Session.UserID, Content: content},
		EmitContactListUpdate{ChatID: chat.ID, LatestMessage: content, ChatName: chat.Name},
	}
}

func (s *State) messagePosted(msg MessagePosted) []Effect {
	if msg.Err != nil {
		log.Error().Err(msg.Err).Str("chat_id", msg.ChatID.String()).Msg("failed to send message")
		return nil
	}

	if s.Active != nil && s.Active.ID == msg.ChatID {
		s.appendMessage(Message{
			ID:        msg.Message.ID,
			SenderID:  s.Session.UserID,
			Content:   msg.Message.Content,
			Timestamp: msg.Message.Timestamp,
			Status:    msg.Message.Status,
			Side:      SideSelf,
		})
	}

	s.touchContact(msg.ChatID, msg.Message.Content)
	return nil
}

func (s *State) reconcileContactList(ev model.ContactListUpdate) {
	if i := s.ContactIndex(ev.ChatID); i >= 0 {
		s.Contacts[i].Preview = Truncate(ev.LatestMessage)
		s.moveToTop(i)
		return
	}

	s.prepend(Contact{
		ChatID:  ev.ChatID,
		Name:    ev.ChatName,
		Preview: Truncate(ev.LatestMessage),
	})
}

func (s *State) messageReceived(ev model.ReceivedMessage) []Effect {
	var effects []Effect

	if s.Active != nil && s.Active.ID == ev.ChatID {
		shown := Message{
			ID:        ev.MessageID,
			SenderID:  ev.SenderID,
			Content:   ev.Content,
			Timestamp: ev.Timestamp,
			Status:    ev.Status,
			Side:      s.sideOf(ev.SenderID),
		}
		if s.appendMessage(shown) && needsRead(shown) {
			effects = append(effects, MarkRead{MessageID: shown.ID})
		}
	}

	s.touchContact(ev.ChatID, ev.Content)
	return effects
}

// touchContact refreshes the preview of a known contact and moves it to
// the top. Unknown chats are left alone.
func (s *State) touchContact(chatID model.ID, latest string) {
	i := s.ContactIndex(chatID)
	if i < 0 {
		return
	}
	s.Contacts[i].Preview = Truncate(latest)
	s.moveToTop(i)
}

func (s *State) addDraftUser(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	for _, u := range s.GroupDraft {
		if u == username {
			return false
		}
	}
	s.GroupDraft = append(s.GroupDraft, username)
	return true
}
