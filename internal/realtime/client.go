// Package realtime is the client side of the chat server's
// publish/subscribe channel: JSON envelopes over a websocket.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	pongWait     = 30 * time.Second
	pingInterval = (pongWait * 9) / 10
	writeTimeout = 10 * time.Second

	// Profile picture broadcasts carry a base64 image of up to 1 MiB.
	readLimit = 4 << 20
)

// Client is one real-time connection.
type Client struct {
	conn    *websocket.Conn
	events  chan any
	emitLim *rate.Limiter
}

// DialOptions configures Dial.
type DialOptions struct {
	HTTPClient *http.Client
	Cookies    []*http.Cookie
}

// URL turns the server base address into the websocket endpoint.
func URL(base *url.URL, path string) string {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = path
	return u.String()
}

// Dial connects to the real-time endpoint. The session cookies are sent
// with the handshake.
func Dial(ctx context.Context, endpoint string, opts DialOptions) (*Client, error) {
	header := http.Header{}
	for _, c := range opts.Cookies {
		header.Add("Cookie", c.String())
	}

	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: opts.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(readLimit)

	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		events: make(chan any, 64),
	}
}

// SetEmitLimiter caps outbound emissions to requests per window.
func (c *Client) SetEmitLimiter(requests int, window time.Duration) {
	if requests <= 0 {
		c.emitLim = nil
		return
	}
	c.emitLim = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

// Events delivers decoded inbound events in arrival order. It is closed
// when Run returns.
func (c *Client) Events() <-chan any {
	return c.events
}

// Emit sends one outbound event.
func (c *Client) Emit(ctx context.Context, event string, payload any) error {
	if c.emitLim != nil {
		if err := c.emitLim.Wait(ctx); err != nil {
			return fmt.Errorf("realtime: %s: %w", event, err)
		}
	}

	p, err := Encode(event, payload)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, p); err != nil {
		return fmt.Errorf("realtime: failed to emit %s: %w", event, err)
	}
	return nil
}

// Run reads the connection until it closes or ctx is done, publishing
// decoded events on Events. A normal closure returns nil.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.keepalive(ctx)
	}()

	defer func() {
		cancel()
		wg.Wait()
		close(c.events)
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure ||
				status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, net.ErrClosed) ||
				ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("realtime: read failed: %w", err)
		}

		// Only text frames carry events.
		if msgType != websocket.MessageText {
			continue
		}

		ev, err := Decode(p)
		if err != nil {
			log.Warn().Err(err).Msg("skipping real-time frame")
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// keepalive pings the server so idle connections survive proxies that
// drop silent sockets.
func (c *Client) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pongWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("real-time ping failed; closing connection")
					c.conn.Close(websocket.StatusGoingAway, "ping timeout") //nolint:errcheck
				}
				return
			}
		}
	}
}

// Close ends the connection with a normal closure.
func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	if err != nil && !errors.Is(err, net.ErrClosed) && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		return fmt.Errorf("realtime: close: %w", err)
	}
	return nil
}
