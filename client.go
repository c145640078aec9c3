// ABOUTME: WebSocket client that follows the mode changes published by a relay.
// ABOUTME: Run keeps a connection open until its context ends, reconnecting with backoff.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RelayClient receives mode events from a relay's /ws endpoint.
type RelayClient struct {
	url     string
	secret  string
	name    string
	onEvent func(ModeEvent)

	OnConnect    func()
	OnDisconnect func(err error)

	// Backoff between failed attempts doubles from MinBackoff up to MaxBackoff
	// and resets after a connection succeeds.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewRelayClient creates a client; onEvent is called from Run's goroutine.
func NewRelayClient(url, secret, name string, onEvent func(ModeEvent)) *RelayClient {
	return &RelayClient{
		url:        url,
		secret:     secret,
		name:       name,
		onEvent:    onEvent,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Run follows the relay until ctx ends.
func (c *RelayClient) Run(ctx context.Context) {
	backoff := c.MinBackoff
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = c.MinBackoff
		}
		logger.Warn().Err(err).Str("url", c.url).Dur("retry_in", backoff).Msg("Relay unavailable")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.MaxBackoff)
	}
}

// session dials once and reads events until the connection drops.
func (c *RelayClient) session(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.secret)
	if c.name != "" {
		header.Set("X-Client-Name", c.name)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return false, err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if c.OnConnect != nil {
		c.OnConnect()
	}

	err = c.readEvents(conn)

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	conn.Close()
	if c.OnDisconnect != nil {
		c.OnDisconnect(err)
	}
	return true, err
}

func (c *RelayClient) readEvents(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := DecodeMessage(raw)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to decode relay message")
			continue
		}
		if msg.Type != MessageTypeMode {
			continue
		}

		var ev ModeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn().Err(err).Msg("Failed to decode mode event")
			continue
		}
		if c.onEvent != nil {
			c.onEvent(ev)
		}
	}
}

// Connected reports whether a relay connection is currently open.
func (c *RelayClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
