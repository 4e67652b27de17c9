// Package metrics exposes Prometheus collectors for the lobby and game
// server. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "connectdark"

// Metrics holds every collector the server records into
type Metrics struct {
	registry *prometheus.Registry

	eventsReceived   *prometheus.CounterVec
	eventsSent       *prometheus.CounterVec
	protocolErrors   *prometheus.CounterVec
	logicErrors      *prometheus.CounterVec
	deliveryFailures prometheus.Counter
	dispatchDuration *prometheus.HistogramVec
	connections      *prometheus.CounterVec
	gamesStarted     prometheus.Counter
	gamesFinished    prometheus.Counter
	plays            prometheus.Counter
}

// Gauges are sampled at scrape time
type Gauges struct {
	Clients  func() int
	Sessions func() int
	Games    func() int
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		eventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound protocol events by event name",
		}, []string{"event"}),
		eventsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_sent_total",
			Help:      "Outbound protocol events queued by event name",
		}, []string{"event"}),
		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound frames dropped because they could not be decoded",
		}, []string{"reason"}),
		logicErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logic_errors_total",
			Help:      "Commands rejected by game or session rules",
		}, []string{"reason"}),
		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Outbound events that could not be queued for a recipient",
		}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling one inbound event",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"event"}),
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Websocket connection attempts by result",
		}, []string{"result"}),
		gamesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started",
		}),
		gamesFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that ended with a winner",
		}),
		plays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_total",
			Help:      "Accepted column plays",
		}),
	}
}

// RegisterGauges exposes live registry sizes
func (m *Metrics) RegisterGauges(g Gauges) {
	if m == nil {
		return
	}
	factory := promauto.With(m.registry)
	gauge := func(name, help string, fn func() int) {
		if fn == nil {
			return
		}
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn()) })
	}
	gauge("clients_connected", "Connected websocket clients", g.Clients)
	gauge("sessions_active", "Sessions currently retained", g.Sessions)
	gauge("games_active", "Games attached to a session", g.Games)
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EventReceived(event string) {
	if m != nil {
		m.eventsReceived.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) EventSent(event string) {
	if m != nil {
		m.eventsSent.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) ProtocolError(reason string) {
	if m != nil {
		m.protocolErrors.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) LogicError(reason string) {
	if m != nil {
		m.logicErrors.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) DeliveryFailed() {
	if m != nil {
		m.deliveryFailures.Inc()
	}
}

// ObserveDispatch records how long handling event took since start
func (m *Metrics) ObserveDispatch(event string, start time.Time) {
	if m != nil {
		m.dispatchDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
	}
}

// Connection counts a connection attempt: accepted, conflict or failed
func (m *Metrics) Connection(result string) {
	if m != nil {
		m.connections.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) GameStarted() {
	if m != nil {
		m.gamesStarted.Inc()
	}
}

func (m *Metrics) GameFinished() {
	if m != nil {
		m.gamesFinished.Inc()
	}
}

func (m *Metrics) Play() {
	if m != nil {
		m.plays.Inc()
	}
}
