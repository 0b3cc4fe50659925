package dispatch

import (
	"sync"

	"golang.org/x/time/rate"

	"parley/pkg/conversation"
	"parley/pkg/models"
	"parley/pkg/notify"
	"parley/pkg/presence"
	"parley/pkg/privacy"
	"parley/pkg/transport"
)

// Persistence is the external thread store boundary (spec'd for private
// threads only; rooms are never persisted by the engine).
type Persistence interface {
	LoadThread(id string) (models.ThreadSnapshot, error)
	AppendMessage(threadID string, msg models.Message) (string, error)
	MarkRead(threadID, recipient string) error
	DeleteThread(id string) error
}

// Options tune one dispatcher/session.
type Options struct {
	// Self is the local viewer; Nick is the room nickname used on joins.
	Self models.Identity
	Nick string
	// RateRPS/RateBurst bound outbound sends; RPS <= 0 disables limiting.
	RateRPS   float64
	RateBurst int
	// Persist is optional; nil keeps threads in memory only.
	Persist Persistence
}

// Dispatcher owns one transport connection and routes between it and the
// conversation registry. Inbound classification and outbound commands both
// live here; it is the only component that consults the privacy list.
type Dispatcher struct {
	tr      transport.Transport
	reg     *conversation.Registry
	machine *presence.Machine
	bus     *notify.Bus
	privacy *privacy.List
	persist Persistence
	limiter *rate.Limiter

	self models.Identity
	nick string

	mu        sync.Mutex
	connState models.ConnState
}

func New(tr transport.Transport, reg *conversation.Registry, machine *presence.Machine, bus *notify.Bus, priv *privacy.List, opts Options) *Dispatcher {
	limit := rate.Inf
	burst := 0
	if opts.RateRPS > 0 {
		limit = rate.Limit(opts.RateRPS)
		burst = opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
	}
	d := &Dispatcher{
		tr:        tr,
		reg:       reg,
		machine:   machine,
		bus:       bus,
		privacy:   priv,
		persist:   opts.Persist,
		limiter:   rate.NewLimiter(limit, burst),
		self:      opts.Self,
		nick:      opts.Nick,
		connState: tr.State(),
	}
	machine.BindSelf(opts.Self, opts.Nick)
	tr.OnReceive(d.HandleInbound)
	return d
}

// Self returns the local viewer identity bound to this session.
func (d *Dispatcher) Self() models.Identity { return d.self }

// SetConnState records a transport state transition and fans out a single
// ConnectionStatusChanged per transition. Conversations are never deleted
// on disconnect so a reconnect can rebind without losing history.
func (d *Dispatcher) SetConnState(s models.ConnState) {
	d.mu.Lock()
	if d.connState == s {
		d.mu.Unlock()
		return
	}
	d.connState = s
	d.mu.Unlock()
	d.bus.Publish(notify.ConnectionStatusChanged{State: s})
}

func (d *Dispatcher) connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connState == models.ConnConnected
}
