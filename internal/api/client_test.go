package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/testutil"
)

func login(t *testing.T, srv *testutil.Server, username string) (*Client, model.Identity) {
	t.Helper()

	c, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := c.Login(ctx, username, "secret")
	require.NoError(t, err)
	return c, id
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https_trailing_slash", "https://chat.example.com/", false},
		{"websocket_scheme", "ws://localhost:8080", true},
		{"garbage", "://nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(c.BaseURL().String(), "/"))
		})
	}
}

func TestLogin(t *testing.T) {
	srv := testutil.NewServer(t)
	want := srv.AddUser("alice", "secret")

	c, got := login(t, srv, "alice")
	assert.Equal(t, want, got)
	assert.NotEmpty(t, c.Cookies(), "session cookie should be kept in the jar")

	t.Run("wrong_password", func(t *testing.T) {
		c, err := New(srv.URL)
		require.NoError(t, err)

		_, err = c.Login(context.Background(), "alice", "nope")
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "Invalid username or password.", rejected.ServerMessage())
	})
}

func TestUnauthenticated(t *testing.T) {
	srv := testutil.NewServer(t)

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Contacts(context.Background())
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Unauthorized", rejected.ServerMessage())
}

func TestWithSession(t *testing.T) {
	srv := testutil.NewServer(t)
	alice := srv.AddUser("alice", "secret")
	token, err := srv.Token(alice)
	require.NoError(t, err)

	c, err := New(srv.URL, WithSession(testutil.SessionCookie, token), WithTimeout(2*time.Second))
	require.NoError(t, err)

	contacts, err := c.Contacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestOptionsOrder(t *testing.T) {
	srv := testutil.NewServer(t)
	alice := srv.AddUser("alice", "secret")
	token, err := srv.Token(alice)
	require.NoError(t, err)

	tests := []struct {
		name string
		opts func(hc *http.Client) []Option
	}{
		{
			name: "http_client_last",
			opts: func(hc *http.Client) []Option {
				return []Option{WithSession(testutil.SessionCookie, token), WithTimeout(2 * time.Second), WithHTTPClient(hc)}
			},
		},
		{
			name: "http_client_first",
			opts: func(hc *http.Client) []Option {
				return []Option{WithHTTPClient(hc), WithTimeout(2 * time.Second), WithSession(testutil.SessionCookie, token)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := &http.Client{Timeout: time.Minute}

			c, err := New(srv.URL, tt.opts(hc)...)
			require.NoError(t, err)

			_, err = c.Contacts(context.Background())
			require.NoError(t, err, "the session cookie survives any option order")
			assert.Equal(t, 2*time.Second, c.http.Timeout)
			assert.Equal(t, time.Minute, hc.Timeout, "the caller's client is not modified")
			assert.Nil(t, hc.Jar)
		})
	}
}

func TestContacts(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("alice", "secret")
	srv.AddUser("bob", "secret")
	srv.AddUser("carol", "secret")
	c, _ := login(t, srv, "alice")
	ctx := context.Background()

	require.NoError(t, c.AddContact(ctx, "bob"))

	tests := []struct {
		name     string
		username string
		wantMsg  string
	}{
		{"unknown_user", "mallory", "User not found."},
		{"self", "alice", "You cannot add yourself as a contact."},
		{"duplicate", "bob", "Contact already exists."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AddContact(ctx, tt.username)
			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.wantMsg, rejected.ServerMessage())
		})
	}

	require.NoError(t, c.CreateGroup(ctx, "weekend", []string{"bob", "carol"}))

	contacts, err := c.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "bob", contacts[0].ChatName)
	assert.Equal(t, "weekend", contacts[1].ChatName)

	info, err := c.Chat(ctx, contacts[1].ChatID)
	require.NoError(t, err)
	assert.Equal(t, model.ChatInfo{Type: model.ChatGroup, Name: "weekend"}, info)

	err = c.CreateGroup(ctx, "ghosts", []string{"nobody"})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.ServerMessage(), "nobody")
}

func TestMessages(t *testing.T) {
	srv := testutil.NewServer(t)
	aliceID := srv.AddUser("alice", "secret")
	bobID := srv.AddUser("bob", "secret")
	chatID, err := srv.Connect(aliceID, bobID)
	require.NoError(t, err)

	alice, _ := login(t, srv, "alice")
	bob, _ := login(t, srv, "bob")
	ctx := context.Background()

	sent, err := alice.SendMessage(ctx, chatID, aliceID.UserID, "hi <b>bob</b>")
	require.NoError(t, err)
	assert.False(t, sent.ID.IsZero())
	assert.Equal(t, "hi bob", sent.Content, "markup is stripped by the server")
	assert.Equal(t, model.StatusSent, sent.Status)

	history, err := bob.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)
	assert.Equal(t, aliceID.UserID, history[0].SenderID)

	t.Run("sender_cannot_mark_own_message", func(t *testing.T) {
		var rejected *RejectedError
		assert.ErrorAs(t, alice.MarkRead(ctx, sent.ID), &rejected)
	})

	t.Run("recipient_marks_read", func(t *testing.T) {
		require.NoError(t, bob.MarkRead(ctx, sent.ID))

		history, err := alice.Messages(ctx, chatID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRead, history[0].Status)
	})

	t.Run("foreign_chat", func(t *testing.T) {
		srv.AddUser("eve", "secret")
		eve, _ := login(t, srv, "eve")

		_, err := eve.Messages(ctx, chatID)
		var rejected *RejectedError
		assert.ErrorAs(t, err, &rejected)
	})
}

func TestProfilePicture(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("alice", "secret")
	c, _ := login(t, srv, "alice")
	ctx := context.Background()

	picture, err := c.ProfilePicture(ctx)
	require.NoError(t, err)
	assert.Empty(t, picture)

	img := []byte("\x89PNG fake image")
	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, img, 0o600))

	url, err := c.UploadProfilePictureFile(ctx, path)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	picture, err = c.ProfilePicture(ctx)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), picture)

	t.Run("too_large", func(t *testing.T) {
		big := bytes.Repeat([]byte{0xff}, MaxPictureSize+1)
		_, err := c.UploadProfilePicture(ctx, "big.png", bytes.NewReader(big))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("exactly_the_limit", func(t *testing.T) {
		edge := bytes.Repeat([]byte{0x01}, MaxPictureSize)
		_, err := c.UploadProfilePicture(ctx, "edge.png", bytes.NewReader(edge))
		assert.NoError(t, err)
	})
}

func TestLogout(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("alice", "secret")
	c, _ := login(t, srv, "alice")
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Cookies())

	_, err := c.Contacts(ctx)
	var rejected *RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		body       string
		wantStatus int
		wantMsg    string
		wantOK     bool
	}{
		{"rejected_200", http.StatusOK, `{"success":false,"message":"nope"}`, 0, "nope", false},
		{"rejected_400", http.StatusBadRequest, `{"success":false,"message":"bad"}`, 0, "bad", false},
		{"plain_text_502", http.StatusBadGateway, `Bad Gateway`, http.StatusBadGateway, "", false},
		{"empty_json_500", http.StatusInternalServerError, `{}`, http.StatusInternalServerError, "", false},
		{"success_without_flag", http.StatusOK, `{"type":"direct","name":"bob"}`, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer ts.Close()

			c, err := New(ts.URL)
			require.NoError(t, err)

			_, err = c.Chat(context.Background(), "1")
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}

			if tt.wantStatus != 0 {
				var status *StatusError
				require.ErrorAs(t, err, &status)
				assert.Equal(t, tt.wantStatus, status.Code)
				return
			}

			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.wantMsg, rejected.ServerMessage())
		})
	}
}
