package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.EventReceived("play_column")
	m.EventReceived("play_column")
	m.EventSent("turn_start")
	m.ProtocolError("malformed")
	m.LogicError("not_your_turn")
	m.DeliveryFailed()
	m.Connection("accepted")
	m.GameStarted()
	m.GameFinished()
	m.Play()
	m.ObserveDispatch("play_column", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsReceived.WithLabelValues("play_column")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsSent.WithLabelValues("turn_start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.protocolErrors.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logicErrors.WithLabelValues("not_your_turn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesFinished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plays))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.EventReceived("x")
		m.EventSent("x")
		m.ProtocolError("x")
		m.LogicError("x")
		m.DeliveryFailed()
		m.Connection("x")
		m.GameStarted()
		m.GameFinished()
		m.Play()
		m.ObserveDispatch("x", time.Now())
		m.RegisterGauges(Gauges{})
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerExposesGauges(t *testing.T) {
	m := New()
	clients := 3
	m.RegisterGauges(Gauges{
		Clients:  func() int { return clients },
		Sessions: func() int { return 2 },
		Games:    func() int { return 1 },
	})
	m.Play()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "connectdark_clients_connected 3")
	assert.Contains(t, text, "connectdark_sessions_active 2")
	assert.Contains(t, text, "connectdark_games_active 1")
	assert.Contains(t, text, "connectdark_plays_total 1")
	assert.Contains(t, text, "go_goroutines")
}
