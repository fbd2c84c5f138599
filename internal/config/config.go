// Package config loads client settings from a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/johndosdos/chatter-client/internal/auth"
	"github.com/johndosdos/chatter-client/internal/model"
)

// ErrNoIdentity is returned when neither a session token nor an explicit
// user ID is configured.
var ErrNoIdentity = errors.New("config: no session identity configured")

// Config holds every client setting.
type Config struct {
	ServerURL     string
	WSPath        string
	SessionToken  string
	SessionCookie string
	UserID        string
	Username      string
	// Password is used when logging in by name.
	Password    string
	HTTPTimeout time.Duration
	// EmitRate caps real-time emissions per minute. Zero disables the cap.
	EmitRate int
	LogLevel zerolog.Level
	LogFile  string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ServerURL:     "http://localhost:8080",
		WSPath:        "/ws",
		SessionCookie: "jwt",
		HTTPTimeout:   10 * time.Second,
		EmitRate:      30,
		LogLevel:      zerolog.InfoLevel,
		LogFile:       "chatter.log",
	}
}

// Load reads the given .env files (".env" when none is named) into the
// process environment, then builds the config from it. Missing files are
// not an error; variables already set win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("CHAT_SERVER_URL", &cfg.ServerURL)
	str("CHAT_WS_PATH", &cfg.WSPath)
	str("CHAT_SESSION_TOKEN", &cfg.SessionToken)
	str("CHAT_SESSION_COOKIE", &cfg.SessionCookie)
	str("CHAT_USER_ID", &cfg.UserID)
	str("CHAT_USERNAME", &cfg.Username)
	str("CHAT_PASSWORD", &cfg.Password)
	str("LOG_FILE", &cfg.LogFile)

	if v := strings.TrimSpace(getenv("CHAT_HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid CHAT_HTTP_TIMEOUT %q", v)
		}
		cfg.HTTPTimeout = d
	}

	if v := strings.TrimSpace(getenv("CHAT_EMIT_RATE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("config: invalid CHAT_EMIT_RATE %q", v)
		}
		cfg.EmitRate = n
	}

	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = lvl
	}

	if !strings.HasPrefix(cfg.WSPath, "/") {
		cfg.WSPath = "/" + cfg.WSPath
	}

	return cfg, nil
}

// Identity returns the session identity. The session token is the
// source of truth; CHAT_USER_ID and CHAT_USERNAME fill in or override
// its fields.
func (c Config) Identity() (model.Identity, error) {
	var id model.Identity
	if c.SessionToken != "" {
		var err error
		id, err = auth.IdentityFromToken(c.SessionToken)
		if err != nil {
			return model.Identity{}, fmt.Errorf("config: %w", err)
		}
	}

	if c.UserID != "" {
		id.UserID = model.ID(c.UserID)
	}
	if c.Username != "" {
		id.Username = c.Username
	}

	if id.UserID.IsZero() {
		return model.Identity{}, ErrNoIdentity
	}
	return id, nil
}
