package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/view"
)

// API is the slice of the HTTP client the TUI uses.
type API interface {
	Contacts(ctx context.Context) ([]model.Contact, error)
	AddContact(ctx context.Context, username string) error
	CreateGroup(ctx context.Context, name string, users []string) error
	Chat(ctx context.Context, chatID model.ID) (model.ChatInfo, error)
	Messages(ctx context.Context, chatID model.ID) ([]model.Message, error)
	SendMessage(ctx context.Context, chatID, senderID model.ID, content string) (model.SentMessage, error)
	MarkRead(ctx context.Context, messageID model.ID) error
	ProfilePicture(ctx context.Context) (string, error)
	UploadProfilePictureFile(ctx context.Context, path string) (string, error)
	Logout(ctx context.Context) error
}

// Channel is the real-time connection.
type Channel interface {
	Emit(ctx context.Context, event string, payload any) error
	Events() <-chan any
}

type emission struct {
	event   string
	payload any
}

// outbox sends emissions one at a time in the order they were queued, so
// a join always reaches the server before the sends that follow it.
type outbox struct {
	ch   chan emission
	rt   Channel
	done chan struct{}
}

func newOutbox(rt Channel) *outbox {
	return &outbox{ch: make(chan emission, 256), rt: rt, done: make(chan struct{})}
}

func (o *outbox) run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case e := <-o.ch:
			if err := o.rt.Emit(ctx, e.event, e.payload); err != nil {
				log.Error().Err(err).Str("event", e.event).Msg("failed to emit")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (o *outbox) push(event string, payload any) {
	if o == nil {
		log.Debug().Str("event", event).Msg("no real-time channel; dropping emission")
		return
	}
	select {
	case o.ch <- emission{event: event, payload: payload}:
	default:
		log.Warn().Str("event", event).Msg("outbox full; dropping emission")
	}
}

// run turns effects into commands. Emissions are queued right away, in
// order; requests run concurrently and report back as messages.
func (m Model) run(effects []view.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		if cmd := m.effect(e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) effect(e view.Effect) tea.Cmd {
	ctx, api := m.ctx, m.api

	switch e := e.(type) {
	case view.FetchContacts:
		return func() tea.Msg {
			contacts, err := api.Contacts(ctx)
			return view.ContactsLoaded{Contacts: contacts, Err: err}
		}

	case view.FetchPicture:
		return func() tea.Msg {
			picture, err := api.ProfilePicture(ctx)
			return view.PictureLoaded{Picture: picture, Err: err}
		}

	case view.FetchChatInfo:
		return func() tea.Msg {
			info, err := api.Chat(ctx, e.ChatID)
			return view.ChatInfoLoaded{ChatID: e.ChatID, Info: info, Err: err}
		}

	case view.FetchHistory:
		return func() tea.Msg {
			messages, err := api.Messages(ctx, e.ChatID)
			return view.HistoryLoaded{ChatID: e.ChatID, Messages: messages, Err: err}
		}

	case view.MarkRead:
		return func() tea.Msg {
			return view.MarkedRead{MessageID: e.MessageID, Err: api.MarkRead(ctx, e.MessageID)}
		}

	case view.PostMessage:
		return func() tea.Msg {
			sent, err := api.SendMessage(ctx, e.ChatID, e.SenderID, e.Content)
			return view.MessagePosted{ChatID: e.ChatID, Message: sent, Err: err}
		}

	case view.PostContact:
		return func() tea.Msg {
			return view.ContactAdded{Err: api.AddContact(ctx, e.Username)}
		}

	case view.PostGroup:
		return func() tea.Msg {
			return view.GroupCreated{Err: api.CreateGroup(ctx, e.Name, e.Users)}
		}

	case view.UploadPicture:
		return func() tea.Msg {
			url, err := api.UploadProfilePictureFile(ctx, e.Path)
			return view.PictureUploaded{URL: url, Err: err}
		}

	case view.DeleteSession:
		return func() tea.Msg {
			return view.LoggedOut{Err: api.Logout(ctx)}
		}

	case view.Quit:
		return tea.Quit

	case view.JoinChat:
		m.out.push(model.EventJoinChat, model.JoinChat{ChatID: e.ChatID})
	case view.EmitStatus:
		m.out.push(model.EventStatusUpdate, model.StatusUpdate{MessageID: e.MessageID, Status: e.Status})
	case view.EmitSendMessage:
		m.out.push(model.EventSendMessage, model.SendMessage{ChatID: e.ChatID, SenderID: e.SenderID, Content: e.Content})
	case view.EmitContactListUpdate:
		m.out.push(model.EventUpdateContactList, model.ContactListUpdate{
			ChatID: e.ChatID, LatestMessage: e.LatestMessage, ChatName: e.ChatName,
		})

	default:
		log.Warn().Msgf("unhandled effect %T", e)
	}
	return nil
}

type eventMsg struct{ ev any }

type channelClosedMsg struct{}

// waitEvent pulls the next real-time event into the message loop.
func waitEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

// eventToMsg maps a decoded real-time event to a reconciler message.
func eventToMsg(ev any) (view.Msg, bool) {
	switch ev := ev.(type) {
	case model.ReceivedMessage:
		return view.MessageReceived{Event: ev}, true
	case model.ContactListUpdate:
		return view.ContactListUpdated{Event: ev}, true
	case model.ContactItemUpdate:
		return view.ContactItemUpdated{Event: ev}, true
	case model.ProfilePictureUpdate:
		return view.ProfilePictureUpdated{Event: ev}, true
	case model.UserConnected:
		log.Debug().Str("uuid", ev.UUID.String()).Msg("user joined room")
	}
	return nil, false
}
