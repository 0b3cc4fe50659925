package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Engine metrics, exposed on /metrics next to the default collectors.
var (
	InboundEnvelopes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_inbound_envelopes_total",
		Help: "Inbound transport envelopes by kind.",
	}, []string{"kind"})

	MalformedEnvelopes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_malformed_envelopes_total",
		Help: "Inbound envelopes dropped at the dispatcher boundary.",
	})

	OutboundSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_outbound_sends_total",
		Help: "Outbound transport sends by command.",
	}, []string{"command"})

	BlockedSends = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_blocked_sends_total",
		Help: "Outbound sends refused by the privacy list.",
	})

	MessagesAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_messages_appended_total",
		Help: "Messages appended to conversation histories.",
	}, []string{"kind"})

	NotificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_notifications_published_total",
		Help: "Notifications published on the bus by kind.",
	}, []string{"kind"})

	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_notifications_dropped_total",
		Help: "Notifications dropped because a subscriber queue was full.",
	})

	RoomsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_rooms_swept_total",
		Help: "Empty rooms closed by the sweeper.",
	})
)

func init() {
	prometheus.MustRegister(
		InboundEnvelopes,
		MalformedEnvelopes,
		OutboundSends,
		BlockedSends,
		MessagesAppended,
		NotificationsPublished,
		NotificationsDropped,
		RoomsSwept,
	)
}

// RegisterOpenConversations exposes the registry size as a gauge; fn is
// polled at scrape time.
func RegisterOpenConversations(fn func() float64) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "parley_open_conversations",
		Help: "Conversations currently open in the registry.",
	}, fn))
}
