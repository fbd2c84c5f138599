package testutil

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johndosdos/chatter-client/internal/model"
)

// timestampLayout matches the server's wire format.
const timestampLayout = "2006-01-02 15:04:05"

var (
	errUserNotFound  = errors.New("User not found.")
	errChatNotFound  = errors.New("Chat not found.")
	errSelfContact   = errors.New("You cannot add yourself as a contact.")
	errContactExists = errors.New("Contact already exists.")
)

type user struct {
	id       uuid.UUID
	username string
	password string
	picture  string
}

type chat struct {
	id      int
	kind    string
	name    string
	members []uuid.UUID
}

// Message halves: one send arrives once over HTTP and once over the
// real-time channel. Both are folded into a single stored message.
const (
	viaHTTP = 1 << iota
	viaSocket
)

type message struct {
	id        int
	chatID    int
	sender    uuid.UUID
	content   string
	timestamp string
	status    string
	via       int
}

// store is the contract server's memory.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*user
	byName   map[string]*user
	chats    map[int]*chat
	messages []*message
	nextChat int
	nextMsg  int
	now      func() time.Time
}

func newStore() *store {
	return &store{
		users:    make(map[uuid.UUID]*user),
		byName:   make(map[string]*user),
		chats:    make(map[int]*chat),
		nextChat: 1,
		nextMsg:  1,
		now:      time.Now,
	}
}

func (s *store) addUser(username, password string) *user {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &user{id: uuid.New(), username: username, password: password}
	s.users[u.id] = u
	s.byName[username] = u
	return u
}

func (s *store) login(username, password string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byName[username]
	if !ok || u.password != password {
		return nil, false
	}
	return u, true
}

func (s *store) user(id uuid.UUID) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	return u, ok
}

func (s *store) setPicture(id uuid.UUID, picture string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		u.picture = picture
	}
}

func (s *store) picture(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return u.picture
	}
	return ""
}

func (s *store) addDirect(owner uuid.UUID, username string) (*chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peer, ok := s.byName[username]
	if !ok {
		return nil, errUserNotFound
	}
	if peer.id == owner {
		return nil, errSelfContact
	}
	for _, c := range s.chats {
		if c.kind == model.ChatDirect && c.has(owner) && c.has(peer.id) {
			return nil, errContactExists
		}
	}

	return s.newChat(model.ChatDirect, "", owner, peer.id), nil
}

func (s *store) addGroup(owner uuid.UUID, name string, usernames []string) (*chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := []uuid.UUID{owner}
	for _, name := range usernames {
		u, ok := s.byName[name]
		if !ok {
			return nil, errors.New("User not found: " + name)
		}
		if u.id != owner {
			members = append(members, u.id)
		}
	}

	return s.newChat(model.ChatGroup, name, members...), nil
}

func (s *store) newChat(kind, name string, members ...uuid.UUID) *chat {
	c := &chat{id: s.nextChat, kind: kind, name: name, members: members}
	s.chats[c.id] = c
	s.nextChat++
	return c
}

func (c *chat) has(id uuid.UUID) bool {
	for _, m := range c.members {
		if m == id {
			return true
		}
	}
	return false
}

// memberChat returns the chat if id belongs to it.
func (s *store) memberChat(chatID model.ID, id uuid.UUID) (*chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.memberChatLocked(chatID, id)
}

func (s *store) memberChatLocked(chatID model.ID, id uuid.UUID) (*chat, error) {
	n, err := strconv.Atoi(chatID.String())
	if err != nil {
		return nil, errChatNotFound
	}
	c, ok := s.chats[n]
	if !ok || !c.has(id) {
		return nil, errChatNotFound
	}
	return c, nil
}

// titleFor names a chat from the viewpoint of a member. Direct chats are
// named after the other participant.
func (s *store) titleFor(c *chat, viewer uuid.UUID) string {
	if c.kind == model.ChatGroup {
		return c.name
	}
	for _, m := range c.members {
		if m != viewer {
			if u, ok := s.users[m]; ok {
				return u.username
			}
		}
	}
	return c.name
}

func (s *store) info(chatID model.ID, viewer uuid.UUID) (model.ChatInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.memberChatLocked(chatID, viewer)
	if err != nil {
		return model.ChatInfo{}, err
	}
	return model.ChatInfo{Type: c.kind, Name: s.titleFor(c, viewer)}, nil
}

func (s *store) contacts(viewer uuid.UUID) []model.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	var contacts []model.Contact
	for id := 1; id < s.nextChat; id++ {
		c, ok := s.chats[id]
		if !ok || !c.has(viewer) {
			continue
		}

		entry := model.Contact{
			ChatID:   model.ID(strconv.Itoa(c.id)),
			ChatName: s.titleFor(c, viewer),
		}
		if c.kind == model.ChatDirect {
			for _, m := range c.members {
				if m != viewer {
					entry.ProfilePicture = s.users[m].picture
				}
			}
		}
		if last := s.latestLocked(c.id); last != nil {
			entry.LatestMessage = last.content
			entry.LatestMessageTimestamp = last.timestamp
		}
		contacts = append(contacts, entry)
	}
	return contacts
}

func (s *store) latestLocked(chatID int) *message {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].chatID == chatID {
			return s.messages[i]
		}
	}
	return nil
}

func (s *store) history(chatID model.ID, viewer uuid.UUID) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.memberChatLocked(chatID, viewer)
	if err != nil {
		return nil, err
	}

	messages := []model.Message{}
	for _, m := range s.messages {
		if m.chatID == c.id {
			messages = append(messages, m.wire())
		}
	}
	return messages, nil
}

// record stores one half of a send. If the other half of the same send
// already arrived, that message is returned instead of a new one.
func (s *store) record(chatID model.ID, sender uuid.UUID, content string, via int) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.memberChatLocked(chatID, sender)
	if err != nil {
		return model.Message{}, err
	}

	for _, m := range s.messages {
		if m.chatID == c.id && m.sender == sender && m.content == content && m.via&via == 0 {
			m.via |= via
			return m.wire(), nil
		}
	}

	m := &message{
		id:        s.nextMsg,
		chatID:    c.id,
		sender:    sender,
		content:   content,
		timestamp: s.now().UTC().Format(timestampLayout),
		status:    model.StatusSent,
		via:       via,
	}
	s.nextMsg++
	s.messages = append(s.messages, m)
	return m.wire(), nil
}

// markRead flips a message to read. Only recipients may do so.
func (s *store) markRead(messageID model.ID, viewer uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := strconv.Atoi(messageID.String())
	if err != nil {
		return errors.New("Message not found.")
	}
	for _, m := range s.messages {
		if m.id != n {
			continue
		}
		c := s.chats[m.chatID]
		if c == nil || !c.has(viewer) || m.sender == viewer {
			return errors.New("Message not found.")
		}
		m.status = model.StatusRead
		return nil
	}
	return errors.New("Message not found.")
}

// members returns the participants of a chat.
func (s *store) members(chatID model.ID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := strconv.Atoi(chatID.String())
	if err != nil {
		return nil
	}
	c, ok := s.chats[n]
	if !ok {
		return nil
	}
	out := make([]uuid.UUID, len(c.members))
	copy(out, c.members)
	return out
}

func (m *message) wire() model.Message {
	return model.Message{
		ID:        model.ID(strconv.Itoa(m.id)),
		SenderID:  model.ID(m.sender.String()),
		Content:   m.content,
		Timestamp: m.timestamp,
		Status:    m.status,
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
