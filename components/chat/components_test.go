package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/view"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestContactItemComponent(t *testing.T) {
	html := render(t, ContactItem(view.Contact{
		ChatID:    "42",
		Name:      `<script>alert("x")</script>`,
		Preview:   "see you soon...",
		Timestamp: "2024-05-01 10:00:00",
	}, true))

	assert.Contains(t, html, `data-chat-id="42"`)
	assert.Contains(t, html, `class="contact-item active"`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "see you soon...")
	assert.Contains(t, html, DefaultAvatar)

	html = render(t, ContactItem(view.Contact{ChatID: "1", Name: "bob", Avatar: "aGk="}, false))
	assert.Contains(t, html, `src="data:image/png;base64,aGk="`)
	assert.NotContains(t, html, "active")
	assert.NotContains(t, html, "contact-time")
}

func TestAttributesEscaped(t *testing.T) {
	html := render(t, ContactItem(view.Contact{ChatID: `1" onclick="x()`, Name: "bob"}, false))
	assert.NotContains(t, html, `onclick="x()"`)
	assert.Contains(t, html, `data-chat-id="1&#34; onclick=&#34;x()"`)

	html = render(t, ReceiverBubble(view.Message{ID: `2"><script>`, Content: "hi"}, false))
	assert.NotContains(t, html, "<script>")
}

func TestContactListComponent(t *testing.T) {
	s := view.New(model.Identity{UserID: "me", Username: "me"})
	assert.Contains(t, render(t, ContactList(s)), "No contacts yet")

	s.Update(view.ContactsLoaded{Contacts: []model.Contact{
		{ChatID: "1", ChatName: "Alice"},
		{ChatID: "2", ChatName: "Bob"},
	}})
	s.Update(view.SelectChat{ChatID: "2", Name: "Bob"})
	s.Update(view.FilterChanged{Term: "BO"})

	html := render(t, ContactList(s))
	assert.NotContains(t, html, "Alice")
	assert.Contains(t, html, "Bob")
	assert.Contains(t, html, `class="contact-item active" data-chat-id="2"`)
}

func TestChatHeaderComponent(t *testing.T) {
	assert.Contains(t, render(t, ChatHeader(nil)), "Select a chat")

	html := render(t, ChatHeader(&view.ActiveChat{ID: "3", Name: "weekend", Group: true}))
	assert.Contains(t, html, "weekend")
	assert.Contains(t, html, "Group")
}

func TestReceiverBubbleComponent(t *testing.T) {
	m := view.Message{ID: "7", SenderID: "u-2", Content: "hello", Timestamp: "10:00", Side: view.SideOther}

	html := render(t, ReceiverBubble(m, false))
	assert.Contains(t, html, `class="message received"`)
	assert.Contains(t, html, `data-message-id="7"`)
	assert.Contains(t, html, "hello")
	assert.NotContains(t, html, "message-status")

	html = render(t, ReceiverBubble(m, true))
	assert.Contains(t, html, `class="message received grouped"`)
}

func TestSenderBubbleComponent(t *testing.T) {
	m := view.Message{ID: "8", SenderID: "me", Content: "hi <b>there</b><script>x()</script>", Status: model.StatusSent, Side: view.SideSelf}

	html := render(t, SenderBubble(m, false))
	assert.Contains(t, html, `class="message sent"`)
	assert.Contains(t, html, "<b>there</b>", "formatting survives")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Sent")

	m.Status = model.StatusRead
	assert.Contains(t, render(t, SenderBubble(m, true)), "Read")
}

func TestMessagePaneComponent(t *testing.T) {
	s := view.New(model.Identity{UserID: "me", Username: "me"})
	s.Update(view.SelectChat{ChatID: "1", Name: "bob"})
	s.Update(view.HistoryLoaded{ChatID: "1", Messages: []model.Message{
		{ID: "1", SenderID: "bob", Content: "one", Status: model.StatusRead},
		{ID: "2", SenderID: "bob", Content: "two", Status: model.StatusRead},
		{ID: "3", SenderID: "me", Content: "three", Status: model.StatusSent},
	}})

	html := render(t, MessagePane(s))
	assert.Equal(t, 2, strings.Count(html, `class="message received`))
	assert.Equal(t, 1, strings.Count(html, `class="message sent`))
	assert.Equal(t, 1, strings.Count(html, "grouped"))
	assert.Less(t, strings.Index(html, "one"), strings.Index(html, "three"))
}

func TestPageComponent(t *testing.T) {
	s := view.New(model.Identity{UserID: "me", Username: "mia"})
	s.Update(view.PictureChosen{})

	html := render(t, Page(s))
	assert.True(t, strings.HasPrefix(strings.ToLower(html), "<!doctype html>"))
	assert.Contains(t, html, "mia")
	assert.Contains(t, html, `id="contact-list"`)
	assert.Contains(t, html, `id="messages"`)
	assert.Contains(t, html, view.AlertNoFile)
}
