package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/realtime"
	"github.com/johndosdos/chatter-client/internal/testutil"
)

// serve starts a websocket server running handler for each connection.
func serve(t *testing.T, handler func(ctx context.Context, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow() //nolint:errcheck
		handler(r.Context(), conn)
	}))
}

func dial(t *testing.T, ctx context.Context, rawURL string, opts realtime.DialOptions) *realtime.Client {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)

	c, err := realtime.Dial(ctx, realtime.URL(u, "/ws"), opts)
	require.NoError(t, err)
	return c
}

func TestRunDeliversEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := serve(t, func(ctx context.Context, conn *websocket.Conn) {
		frames := []string{
			`{"event":"typing","data":{}}`,
			`{"event":"update_contact_item","data":{"chat_id":1,"latest_message":"first"}}`,
			`{"event":"receive_message","data":{"chat_id":1,"sender_id":"u-2","content":"second","status":"sent","message_id":5}}`,
		}
		for _, f := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		conn.Write(ctx, websocket.MessageBinary, []byte{0x01}) //nolint:errcheck
		conn.Close(websocket.StatusNormalClosure, "bye")      //nolint:errcheck
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv.URL, realtime.DialOptions{})
	require.NoError(t, c.Run(ctx))

	var got []any
	for ev := range c.Events() {
		got = append(got, ev)
	}

	assert.Equal(t, []any{
		model.ContactItemUpdate{ChatID: "1", LatestMessage: "first"},
		model.ReceivedMessage{ChatID: "1", SenderID: "u-2", Content: "second", Status: "sent", MessageID: "5"},
	}, got, "unknown events and binary frames are skipped, order is kept")
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := serve(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Read(ctx) //nolint:errcheck
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := dial(t, ctx, srv.URL, realtime.DialOptions{})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, open := <-c.Events()
	assert.False(t, open)
}

func TestEmit(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	received := make(chan []byte, 1)
	srv := serve(t, func(ctx context.Context, conn *websocket.Conn) {
		_, p, err := conn.Read(ctx)
		if err != nil {
			return
		}
		received <- p
		conn.Read(ctx) //nolint:errcheck
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv.URL, realtime.DialOptions{})
	defer c.Close()

	require.NoError(t, c.Emit(ctx, model.EventJoinChat, model.JoinChat{ChatID: "4"}))

	select {
	case p := <-received:
		var env model.Envelope
		require.NoError(t, json.Unmarshal(p, &env))
		assert.Equal(t, model.EventJoinChat, env.Event)
		assert.JSONEq(t, `{"chat_id":4}`, string(env.Data))
	case <-ctx.Done():
		t.Fatal("server never received the frame")
	}
}

func TestEmitLimiter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := serve(t, func(ctx context.Context, conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv.URL, realtime.DialOptions{})
	defer c.Close()
	c.SetEmitLimiter(1, time.Hour)

	require.NoError(t, c.Emit(ctx, model.EventJoinChat, model.JoinChat{ChatID: "1"}))

	short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
	defer stop()
	assert.Error(t, c.Emit(short, model.EventJoinChat, model.JoinChat{ChatID: "1"}))
}

func TestRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := testutil.NewServer(t)
	defer srv.Close()

	alice := srv.AddUser("alice", "secret")
	bob := srv.AddUser("bob", "secret")
	chatID, err := srv.Connect(alice, bob)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connect := func(id model.Identity) *realtime.Client {
		token, err := srv.Token(id)
		require.NoError(t, err)
		return dial(t, ctx, srv.URL, realtime.DialOptions{
			Cookies: []*http.Cookie{{Name: testutil.SessionCookie, Value: token}},
		})
	}

	ac := connect(alice)
	bc := connect(bob)
	runs := make(chan error, 2)
	go func() { runs <- ac.Run(ctx) }()
	go func() { runs <- bc.Run(ctx) }()

	next := func(c *realtime.Client) any {
		select {
		case ev := <-c.Events():
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return nil
		}
	}

	// Each join is acknowledged to the room, the joiner included.
	require.NoError(t, bc.Emit(ctx, model.EventJoinChat, model.JoinChat{ChatID: chatID}))
	assert.Equal(t, model.UserConnected{UUID: bob.UserID}, next(bc))
	require.NoError(t, ac.Emit(ctx, model.EventJoinChat, model.JoinChat{ChatID: chatID}))
	assert.Equal(t, model.UserConnected{UUID: alice.UserID}, next(ac))
	assert.Equal(t, model.UserConnected{UUID: alice.UserID}, next(bc))

	require.NoError(t, ac.Emit(ctx, model.EventSendMessage, model.SendMessage{
		ChatID: chatID, SenderID: alice.UserID, Content: "hello bob",
	}))

	got, ok := next(bc).(model.ReceivedMessage)
	require.True(t, ok)
	assert.Equal(t, chatID, got.ChatID)
	assert.Equal(t, alice.UserID, got.SenderID)
	assert.Equal(t, "hello bob", got.Content)
	assert.False(t, got.MessageID.IsZero())

	item, ok := next(bc).(model.ContactItemUpdate)
	require.True(t, ok)
	assert.Equal(t, model.ContactItemUpdate{ChatID: chatID, LatestMessage: "hello bob"}, item)

	echo, ok := next(ac).(model.ReceivedMessage)
	require.True(t, ok, "the sender is in the room too")
	assert.Equal(t, got.MessageID, echo.MessageID)

	require.NoError(t, ac.Close())
	require.NoError(t, bc.Close())
	for range 2 {
		assert.NoError(t, <-runs)
	}
}
