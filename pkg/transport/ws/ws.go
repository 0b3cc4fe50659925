// Package ws carries envelopes as JSON frames over a WebSocket connection.
package ws

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/transport"
)

// Conn is a Transport over one WebSocket connection. One read pump feeds
// the registered handler in arrival order; writes are serialized.
type Conn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	handler func(models.Envelope)
	state   models.ConnState
	// OnStateChange must be set right after Dial, before traffic flows.
	OnStateChange func(models.ConnState)
}

var _ transport.Transport = (*Conn)(nil)

// Dial connects to a websocket endpoint and starts the read pump.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{ws: ws, state: models.ConnConnected}
	go c.readPump()
	return c, nil
}

func (c *Conn) readPump() {
	for {
		var env models.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			logger.Warn("ws_read_failed", "error", err)
			c.setState(models.ConnDisconnected)
			return
		}
		c.mu.Lock()
		fn := c.handler
		c.mu.Unlock()
		if fn != nil {
			fn(env)
		}
	}
}

func (c *Conn) Send(ctx context.Context, env models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.ConnConnected {
		return transport.ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetWriteDeadline(deadline)
	}
	return c.ws.WriteJSON(env)
}

func (c *Conn) OnReceive(fn func(models.Envelope)) {
	c.mu.Lock()
	c.handler = fn
	c.mu.Unlock()
}

func (c *Conn) State() models.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s models.ConnState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	fn := c.OnStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Close tears the connection down and flips the state to disconnected.
func (c *Conn) Close() error {
	c.setState(models.ConnDisconnected)
	return c.ws.Close()
}
