package transport

import (
	"context"
	"sync"

	"parley/pkg/models"
)

// Memory is an in-process transport endpoint used by tests and embedded
// sessions. Sent envelopes are recorded (and forwarded to a peer when one
// is linked); Deliver injects inbound envelopes synchronously.
type Memory struct {
	mu      sync.Mutex
	handler func(models.Envelope)
	state   models.ConnState
	sent    []models.Envelope
	peer    *Memory
}

func NewMemory() *Memory {
	return &Memory{state: models.ConnConnected}
}

// NewMemoryPair returns two cross-linked endpoints: what one sends the
// other receives.
func NewMemoryPair() (*Memory, *Memory) {
	a, b := NewMemory(), NewMemory()
	a.peer, b.peer = b, a
	return a, b
}

func (m *Memory) Send(_ context.Context, env models.Envelope) error {
	m.mu.Lock()
	if m.state != models.ConnConnected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	m.sent = append(m.sent, env)
	peer := m.peer
	m.mu.Unlock()
	if peer != nil {
		peer.Deliver(env)
	}
	return nil
}

func (m *Memory) OnReceive(fn func(models.Envelope)) {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()
}

func (m *Memory) State() models.ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState flips the connection state; tests use it to simulate
// disconnects.
func (m *Memory) SetState(s models.ConnState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Deliver hands an inbound envelope to the registered handler,
// synchronously, in call order.
func (m *Memory) Deliver(env models.Envelope) {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn != nil {
		fn(env)
	}
}

// Sent returns a copy of everything sent through this endpoint.
func (m *Memory) Sent() []models.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Envelope, len(m.sent))
	copy(out, m.sent)
	return out
}
