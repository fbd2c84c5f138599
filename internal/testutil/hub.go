package testutil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/realtime"
)

type sanitizer interface {
	Sanitize(s string) string
}

// Client is one connected websocket peer.
type Client struct {
	UserID   uuid.UUID
	Username string
	conn     *websocket.Conn
	hub      *Hub
	Outbound chan []byte
}

type Registration struct {
	Client *Client
	Done   chan struct{}
}

type inbound struct {
	client *Client
	env    model.Envelope
}

// Hub routes real-time events between connected clients.
type Hub struct {
	store      *store
	clients    map[*Client]struct{}
	rooms      map[model.ID]map[*Client]struct{}
	Register   chan Registration
	Unregister chan *Client
	ClientMsg  chan inbound
	Broadcast  chan []byte
	sanitizer  sanitizer
	done       chan struct{}
}

// NewHub returns a new instance of Hub.
func NewHub(st *store) *Hub {
	return &Hub{
		store:      st,
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[model.ID]map[*Client]struct{}),
		Register:   make(chan Registration),
		Unregister: make(chan *Client),
		ClientMsg:  make(chan inbound, 64),
		Broadcast:  make(chan []byte, 64),
		sanitizer:  bluemonday.StrictPolicy(),
		done:       make(chan struct{}),
	}
}

// Run manages incoming and outgoing hub traffic until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case reg := <-h.Register:
			reg.Client.hub = h
			h.clients[reg.Client] = struct{}{}
			close(reg.Done)

		case c := <-h.Unregister:
			h.remove(c)

		case in := <-h.ClientMsg:
			h.handle(in)

		case p := <-h.Broadcast:
			for c := range h.clients {
				h.deliver(c, p)
			}

		case <-ctx.Done():
			for c := range h.clients {
				c.conn.CloseNow() //nolint:errcheck
				h.remove(c)
			}
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	close(c.Outbound)
}

func (h *Hub) deliver(c *Client, p []byte) {
	select {
	case c.Outbound <- p:
	default:
		log.Warn().Str("username", c.Username).Msg("skipping frame - channel full or client slow")
	}
}

func (h *Hub) handle(in inbound) {
	c := in.client
	if _, ok := h.clients[c]; !ok {
		return
	}

	switch in.env.Event {
	case model.EventJoinChat:
		var ev model.JoinChat
		if err := json.Unmarshal(in.env.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("bad join_chat payload")
			return
		}
		if _, err := h.store.memberChat(ev.ChatID, c.UserID); err != nil {
			log.Warn().Str("chat_id", ev.ChatID.String()).Msg("join refused")
			return
		}
		room, ok := h.rooms[ev.ChatID]
		if !ok {
			room = make(map[*Client]struct{})
			h.rooms[ev.ChatID] = room
		}
		room[c] = struct{}{}

		ack, err := realtime.Encode(model.EventUserConnected, model.UserConnected{UUID: model.ID(c.UserID.String())})
		if err != nil {
			log.Error().Err(err).Msg("failed to encode user_connected")
			return
		}
		for peer := range room {
			h.deliver(peer, ack)
		}

	case model.EventSendMessage:
		var ev model.SendMessage
		if err := json.Unmarshal(in.env.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("bad send_message payload")
			return
		}
		// We need to sanitize incoming messages to prevent XSS.
		content := h.sanitizer.Sanitize(ev.Content)
		msg, err := h.store.record(ev.ChatID, c.UserID, content, viaSocket)
		if err != nil {
			log.Warn().Err(err).Msg("failed to record message")
			return
		}

		frame, err := realtime.Encode(model.EventReceiveMessage, model.ReceivedMessage{
			ChatID:    ev.ChatID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Status:    msg.Status,
			MessageID: msg.ID,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to encode receive_message")
			return
		}
		for peer := range h.rooms[ev.ChatID] {
			h.deliver(peer, frame)
		}

		item, err := realtime.Encode(model.EventUpdateContactItem, model.ContactItemUpdate{
			ChatID:        ev.ChatID,
			LatestMessage: msg.Content,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to encode update_contact_item")
			return
		}
		h.toMembers(ev.ChatID, c, func(*Client) []byte { return item })

	case model.EventUpdateContactList:
		var ev model.ContactListUpdate
		if err := json.Unmarshal(in.env.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("bad update_contact_list payload")
			return
		}
		if _, err := h.store.memberChat(ev.ChatID, c.UserID); err != nil {
			return
		}
		h.toMembers(ev.ChatID, c, func(peer *Client) []byte {
			info, err := h.store.info(ev.ChatID, peer.UserID)
			if err != nil {
				return nil
			}
			out := ev
			out.ChatName = info.Name
			p, err := realtime.Encode(model.EventUpdateContactList, out)
			if err != nil {
				return nil
			}
			return p
		})

	case model.EventStatusUpdate:
		var ev model.StatusUpdate
		if err := json.Unmarshal(in.env.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("bad status_update payload")
			return
		}
		log.Debug().Str("message_id", ev.MessageID.String()).Str("status", ev.Status).Msg("status update")

	default:
		log.Warn().Str("event", in.env.Event).Msg("unknown event")
	}
}

// toMembers sends a frame to every connection of the chat's members
// other than the sending connection.
func (h *Hub) toMembers(chatID model.ID, from *Client, frame func(*Client) []byte) {
	members := h.store.members(chatID)
	for peer := range h.clients {
		if peer == from {
			continue
		}
		for _, m := range members {
			if peer.UserID != m {
				continue
			}
			if p := frame(peer); p != nil {
				h.deliver(peer, p)
			}
			break
		}
	}
}

// readLoop forwards the client's frames to the hub.
func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		c.conn.CloseNow() //nolint:errcheck
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		// The app only supports text format for now...
		if msgType != websocket.MessageText {
			continue
		}

		var env model.Envelope
		if err := json.Unmarshal(p, &env); err != nil {
			log.Warn().Err(err).Msg("failed to process payload from client")
			continue
		}

		select {
		case c.hub.ClientMsg <- inbound{client: c, env: env}:
		case <-c.hub.done:
			return
		}
	}
}

// writeLoop drains Outbound until the hub closes it.
func (c *Client) writeLoop(ctx context.Context) {
	for p := range c.Outbound {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := c.conn.Write(writeCtx, websocket.MessageText, p)
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("username", c.Username).Msg("websocket write failed")
		}
	}
}
