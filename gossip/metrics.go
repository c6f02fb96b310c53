package gossip

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// Rounds is the total number of gossip rounds run.
	Rounds prometheus.Counter

	// GossipsOutbound is the total number of gossip payloads sent.
	GossipsOutbound prometheus.Counter

	// GossipsInbound is the total number of gossip payloads received.
	GossipsInbound prometheus.Counter

	// AcksReceived is the total number of acknowledged payloads.
	AcksReceived prometheus.Counter

	// AckFailures is the total number of payloads whose ACK timed out
	// or was malformed.
	AckFailures prometheus.Counter

	// SideChannelUnhandled is the total number of side channel messages
	// for identifiers with no logic.
	SideChannelUnhandled prometheus.Counter

	// Peers is the current size of the peer set.
	Peers prometheus.Gauge

	// Logics is the current number of active gossip streams.
	Logics prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Rounds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "rounds_total",
				Help:      "Total number of gossip rounds run",
			},
		),
		GossipsOutbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "gossips_outbound_total",
				Help:      "Total number of gossip payloads sent",
			},
		),
		GossipsInbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "gossips_inbound_total",
				Help:      "Total number of gossip payloads received",
			},
		),
		AcksReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "acks_received_total",
				Help:      "Total number of acknowledged payloads",
			},
		),
		AckFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "ack_failures_total",
				Help:      "Total number of payloads whose ACK timed out or was malformed",
			},
		),
		SideChannelUnhandled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "side_channel_unhandled_total",
				Help:      "Total number of side channel messages with no logic to serve them",
			},
		),
		Peers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "peers",
				Help:      "Current size of the peer set",
			},
		),
		Logics: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "drift",
				Subsystem: "gossip",
				Name:      "logics",
				Help:      "Current number of active gossip streams",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.Rounds,
		m.GossipsOutbound,
		m.GossipsInbound,
		m.AcksReceived,
		m.AckFailures,
		m.SideChannelUnhandled,
		m.Peers,
		m.Logics,
	)
}
