package transport

import (
	"context"

	"parley/pkg/models"
)

// Transport is the wire boundary the engine rides on. Implementations own
// the concrete protocol; the engine only speaks envelopes. Send may block
// or fail at the boundary, hence the context.
type Transport interface {
	Send(ctx context.Context, env models.Envelope) error
	// OnReceive registers the inbound handler. One handler per transport;
	// envelopes are delivered in arrival order.
	OnReceive(fn func(models.Envelope))
	State() models.ConnState
}
