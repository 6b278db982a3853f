// Package metrics exposes Prometheus collectors for the chat hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bot request outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics groups the hub collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Connections prometheus.Gauge
	Messages    *prometheus.CounterVec
	Reactions   prometheus.Counter
	Evictions   prometheus.Counter
	Dropped     prometheus.Counter
	BotRequests *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "miochat",
			Name:      "connections",
			Help:      "Currently registered connections.",
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miochat",
			Name:      "messages_total",
			Help:      "Messages appended to room history, by author kind.",
		}, []string{"author"}),
		Reactions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "miochat",
			Name:      "reaction_toggles_total",
			Help:      "Reaction toggles applied.",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "miochat",
			Name:      "history_evictions_total",
			Help:      "Messages evicted from room history.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "miochat",
			Name:      "events_dropped_total",
			Help:      "Outbound events dropped because a client queue was full.",
		}),
		BotRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miochat",
			Name:      "bot_requests_total",
			Help:      "Completion requests made for bot personas, by outcome.",
		}, []string{"persona", "outcome"}),
	}
}

// ConnectionOpened counts a registered connection.
func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

// ConnectionClosed counts a connection leaving the hub.
func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

// MessageAppended counts a history append. author is "user" or "bot".
func (m *Metrics) MessageAppended(author string, evicted int) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(author).Inc()
	if evicted > 0 {
		m.Evictions.Add(float64(evicted))
	}
}

// ReactionToggled counts one reaction add or remove.
func (m *Metrics) ReactionToggled() {
	if m != nil {
		m.Reactions.Inc()
	}
}

// EventDropped counts an event discarded for a full client queue.
func (m *Metrics) EventDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

// BotRequest counts a finished completion request for persona.
func (m *Metrics) BotRequest(persona, outcome string) {
	if m != nil {
		m.BotRequests.WithLabelValues(persona, outcome).Inc()
	}
}

// State holds gauges sampled from the hub's state containers at scrape time.
type State struct {
	Sessions         prometheus.GaugeFunc
	ReactionMessages prometheus.GaugeFunc
}

// WatchState registers gauges that read the live session count and the number
// of messages with a stored reaction aggregate.
func WatchState(reg prometheus.Registerer, sessions, reactionMessages func() int) State {
	f := promauto.With(reg)
	return State{
		Sessions: f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "miochat",
			Name:      "sessions",
			Help:      "Connections joined to a room.",
		}, func() float64 { return float64(sessions()) }),
		ReactionMessages: f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "miochat",
			Name:      "reaction_messages",
			Help:      "Messages with a stored reaction aggregate.",
		}, func() float64 { return float64(reactionMessages()) }),
	}
}
