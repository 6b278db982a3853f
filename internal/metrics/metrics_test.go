package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.MessageAppended("user", 0)
	m.MessageAppended("bot", 2)
	m.ReactionToggled()
	m.BotRequest("Comedian", OutcomeFailed)

	if got := testutil.ToFloat64(m.Connections); got != 1 {
		t.Fatalf("connections = %v", got)
	}
	if got := testutil.ToFloat64(m.Messages.WithLabelValues("bot")); got != 1 {
		t.Fatalf("bot messages = %v", got)
	}
	if got := testutil.ToFloat64(m.Evictions); got != 2 {
		t.Fatalf("evictions = %v", got)
	}
	if got := testutil.ToFloat64(m.BotRequests.WithLabelValues("Comedian", OutcomeFailed)); got != 1 {
		t.Fatalf("bot failures = %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ConnectionOpened()
	m.MessageAppended("user", 3)
	m.ReactionToggled()
	m.EventDropped()
	m.BotRequest("Comedian", OutcomeOK)
}

func TestWatchStateSamplesOnScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	sessions, reactions := 0, 3
	state := WatchState(reg, func() int { return sessions }, func() int { return reactions })

	sessions = 2
	if got := testutil.ToFloat64(state.Sessions); got != 2 {
		t.Fatalf("sessions = %v", got)
	}
	if got := testutil.ToFloat64(state.ReactionMessages); got != 3 {
		t.Fatalf("reaction messages = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "miochat_sessions", "miochat_reaction_messages"); err != nil || n != 2 {
		t.Fatalf("gathered %d series, err %v", n, err)
	}
}
