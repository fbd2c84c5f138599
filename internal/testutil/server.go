// Package testutil runs an in-memory chat server that speaks the HTTP
// and real-time contract the client consumes. It exists for tests only.
package testutil

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal"
	"github.com/johndosdos/chatter-client/internal/auth"
	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/realtime"
)

const (
	// SessionCookie is the cookie holding the session JWT.
	SessionCookie = "jwt"
	// WSPath is the real-time endpoint.
	WSPath = "/ws"

	sessionTTL     = time.Hour
	maxPictureSize = 1 << 20

	loginRequests = 60
	loginWindow   = time.Minute
)

// Server is a running contract server.
type Server struct {
	*httptest.Server
	Secret string

	store   *store
	hub     *Hub
	limiter *ipLimiter
	cancel  context.CancelFunc
	swept   chan struct{}
}

// NewServer starts a contract server and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Secret:  "contract-secret-" + uuid.NewString(),
		store:   newStore(),
		limiter: newIPLimiter(loginRequests, loginWindow, 10*time.Minute),
		cancel:  cancel,
		swept:   make(chan struct{}),
	}
	s.hub = NewHub(s.store)
	go s.hub.Run(ctx)
	go func() {
		defer close(s.swept)
		s.limiter.sweep(ctx, time.Minute)
	}()

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Close stops the hub, which drops every websocket, then the HTTP
// server.
func (s *Server) Close() {
	s.cancel()
	<-s.hub.done
	<-s.swept
	s.Server.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.With(s.limiter.middleware).Post("/api/v1/sessions", s.serveLogin)

	r.Group(func(r chi.Router) {
		r.Use(internal.Middleware(SessionCookie, s.Secret))

		r.Delete("/api/v1/sessions", s.serveLogout)
		r.Get("/api/v1/contacts", s.serveContacts)
		r.Post("/api/v1/contacts", s.serveAddContact)
		r.Post("/api/v1/group_chats", s.serveCreateGroup)
		r.Get("/api/v1/chats/{chatID}", s.serveChat)
		r.Post("/api/v1/messages/read", s.serveMarkRead)
		r.Get("/api/v1/messages/{chatID}", s.serveMessages)
		r.Post("/api/v1/messages", s.serveSendMessage)
		r.Post("/api/v1/upload_profile_picture", s.serveUploadPicture)
		r.Get("/api/v1/profile_picture", s.servePicture)
		r.Get(WSPath, s.serveWs)
	})

	return r
}

// AddUser registers an account.
func (s *Server) AddUser(username, password string) model.Identity {
	u := s.store.addUser(username, password)
	return model.Identity{UserID: model.ID(u.id.String()), Username: u.username}
}

// Token signs a session token for a registered user.
func (s *Server) Token(id model.Identity) (string, error) {
	userID, err := uuid.Parse(id.UserID.String())
	if err != nil {
		return "", err
	}
	return auth.MakeJWT(userID, id.Username, s.Secret, sessionTTL)
}

// Connect makes a direct chat between two users and returns its ID.
func (s *Server) Connect(a, b model.Identity) (model.ID, error) {
	owner, err := uuid.Parse(a.UserID.String())
	if err != nil {
		return "", err
	}
	c, err := s.store.addDirect(owner, b.Username)
	if err != nil {
		return "", err
	}
	return model.ID(itoa(c.id)), nil
}

// History returns the stored messages of a chat as seen by viewer.
func (s *Server) History(chatID model.ID, viewer model.Identity) ([]model.Message, error) {
	id, err := uuid.Parse(viewer.UserID.String())
	if err != nil {
		return nil, err
	}
	return s.store.history(chatID, id)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func reject(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"success": false, "message": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		reject(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

func (s *Server) serveLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	u, ok := s.store.login(in.Username, in.Password)
	if !ok {
		reject(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	token, err := auth.MakeJWT(u.id, u.username, s.Secret, sessionTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign session")
		reject(w, http.StatusInternalServerError, "Could not create session.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"user_id":  u.id.String(),
		"username": u.username,
	})
}

func (s *Server) serveLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) serveContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())
	contacts := s.store.contacts(userID)
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contacts": contacts})
}

func (s *Server) serveAddContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	var in struct {
		Username string `json:"username"`
	}
	if !decode(w, r, &in) {
		return
	}

	if _, err := s.store.addDirect(userID, in.Username); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, errUserNotFound) {
			code = http.StatusNotFound
		}
		reject(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Contact added successfully."})
}

func (s *Server) serveCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	var in struct {
		Name  string   `json:"name"`
		Users []string `json:"users"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" || len(in.Users) == 0 {
		reject(w, http.StatusBadRequest, "Group name and members are required.")
		return
	}

	if _, err := s.store.addGroup(userID, in.Name, in.Users); err != nil {
		reject(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Group chat created successfully."})
}

func (s *Server) serveChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	info, err := s.store.info(model.ID(chi.URLParam(r, "chatID")), userID)
	if err != nil {
		reject(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) serveMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	messages, err := s.store.history(model.ID(chi.URLParam(r, "chatID")), userID)
	if err != nil {
		reject(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

func (s *Server) serveSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	var in struct {
		ChatID   model.ID `json:"chat_id"`
		SenderID model.ID `json:"sender_id"`
		Content  string   `json:"content"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.SenderID.String() != userID.String() {
		reject(w, http.StatusForbidden, "Sender does not match session.")
		return
	}

	msg, err := s.store.record(in.ChatID, userID, s.hub.sanitizer.Sanitize(in.Content), viaHTTP)
	if err != nil {
		reject(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"id":        msg.ID,
		"content":   msg.Content,
		"timestamp": msg.Timestamp,
		"status":    msg.Status,
	})
}

func (s *Server) serveMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	var in struct {
		MessageID model.ID `json:"message_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := s.store.markRead(in.MessageID, userID); err != nil {
		reject(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) serveUploadPicture(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize+64<<10)
	f, _, err := r.FormFile("profile_picture")
	if err != nil {
		reject(w, http.StatusBadRequest, "No file selected.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPictureSize+1))
	if err != nil {
		reject(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	if len(data) > maxPictureSize {
		reject(w, http.StatusRequestEntityTooLarge, "File size exceeds 1MB limit.")
		return
	}

	picture := base64.StdEncoding.EncodeToString(data)
	s.store.setPicture(userID, picture)

	frame, err := realtime.Encode(model.EventUpdateProfilePicture, model.ProfilePictureUpdate{
		UserUUID:       model.ID(userID.String()),
		ProfilePicture: picture,
	})
	if err == nil {
		select {
		case s.hub.Broadcast <- frame:
		case <-s.hub.done:
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"profile_picture_url": "/api/v1/profile_picture",
	})
}

func (s *Server) servePicture(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"profile_picture": s.store.picture(userID),
	})
}

// serveWs upgrades the connection and attaches it to the hub.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("websocket without session")
		return
	}
	u, ok := s.store.user(userID)
	if !ok {
		reject(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to accept websocket")
		return
	}
	conn.SetReadLimit(4 << 20)

	c := &Client{
		UserID:   u.id,
		Username: u.username,
		conn:     conn,
		Outbound: make(chan []byte, 64),
	}
	reg := Registration{Client: c, Done: make(chan struct{})}

	select {
	case s.hub.Register <- reg:
	case <-s.hub.done:
		conn.CloseNow() //nolint:errcheck
		return
	}

	// Wait for registration to complete
	<-reg.Done

	// We block on c.readLoop() because the request context is canceled as
	// soon as we return from the handler.
	go c.writeLoop(ctx)
	c.readLoop(ctx)
}
