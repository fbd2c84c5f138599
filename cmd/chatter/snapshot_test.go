package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatter-client/components/chat"
	"github.com/johndosdos/chatter-client/internal/api"
	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/testutil"
	"github.com/johndosdos/chatter-client/internal/view"
)

func TestSettle(t *testing.T) {
	srv := testutil.NewServer(t)
	alice := srv.AddUser("alice", "secret")
	bob := srv.AddUser("bob", "secret")
	chatID, err := srv.Connect(alice, bob)
	require.NoError(t, err)

	ctx := context.Background()

	bc, err := api.New(srv.URL)
	require.NoError(t, err)
	_, err = bc.Login(ctx, "bob", "secret")
	require.NoError(t, err)
	_, err = bc.SendMessage(ctx, chatID, bob.UserID, "are you there?")
	require.NoError(t, err)

	ac, err := api.New(srv.URL)
	require.NoError(t, err)
	id, err := ac.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	state := view.New(id)
	settle(ctx, ac, state, view.Started{})
	require.Len(t, state.Contacts, 1)
	assert.Equal(t, "are you there?", state.Contacts[0].Preview)

	settle(ctx, ac, state, view.SelectChat{ChatID: chatID, Name: "bob"})
	require.Len(t, state.Messages, 1)
	assert.Equal(t, view.SideOther, state.Messages[0].Side)

	history, err := srv.History(chatID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, history[0].Status, "a snapshot does not mark messages read")

	var buf bytes.Buffer
	require.NoError(t, chat.Page(state).Render(ctx, &buf))
	assert.Contains(t, buf.String(), "are you there?")
	assert.Contains(t, buf.String(), `class="contact-item active"`)
}
