package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels shared by the load and fetch counters
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics owns the prometheus collectors of the service and mirrors each
// update into a Monitor. A nil *Metrics discards every observation.
type Metrics struct {
	registry *prometheus.Registry
	monitor  *Monitor

	chatTurns       *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	menuLoads       *prometheus.CounterVec
	weatherFetches  *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	ordersConfirmed prometheus.Counter
	activeSessions  prometheus.Gauge
}

// NewMetrics registers the service collectors on a private registry
func NewMetrics(monitor *Monitor) *Metrics {
	if monitor == nil {
		monitor = NewMonitor()
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		monitor:  monitor,
		chatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_turns_total",
				Help: "Dialogue turns handled, by outcome",
			},
			[]string{"outcome"},
		),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Latency of chat completion requests",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
			},
			[]string{"provider"},
		),
		menuLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menu_loads_total",
				Help: "Menu loads, by result",
			},
			[]string{"result"},
		),
		weatherFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_fetches_total",
				Help: "Weather lookups, by result",
			},
			[]string{"result"},
		),
		cartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_mutations_total",
				Help: "Cart changes, by operation",
			},
			[]string{"op"},
		),
		ordersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_confirmed_total",
			Help: "Checkouts confirmed",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Sessions currently held in memory",
		}),
	}

	m.registry.MustRegister(
		m.chatTurns,
		m.llmDuration,
		m.menuLoads,
		m.weatherFetches,
		m.cartMutations,
		m.ordersConfirmed,
		m.activeSessions,
	)
	return m
}

// Registry exposes the private registry for promhttp
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Monitor returns the JSON mirror of the collectors
func (m *Metrics) Monitor() *Monitor {
	if m == nil {
		return nil
	}
	return m.monitor
}

func (m *Metrics) ChatTurn(outcome string) {
	if m == nil {
		return
	}
	m.chatTurns.WithLabelValues(outcome).Inc()
	m.monitor.Increment("chat_turns_" + outcome)
}

func (m *Metrics) ObserveLLM(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.monitor.RecordMetric("llm_last_duration_seconds", d.Seconds())
}

func (m *Metrics) MenuLoad(ok bool) {
	if m == nil {
		return
	}
	result := resultLabel(ok)
	m.menuLoads.WithLabelValues(result).Inc()
	m.monitor.Increment("menu_loads_" + result)
	m.monitor.RecordMetric("menu_last_load", time.Now().Format(time.RFC3339))
}

func (m *Metrics) WeatherFetch(ok bool) {
	if m == nil {
		return
	}
	result := resultLabel(ok)
	m.weatherFetches.WithLabelValues(result).Inc()
	m.monitor.Increment("weather_fetches_" + result)
}

func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
	m.monitor.Increment("cart_" + op)
}

func (m *Metrics) OrderConfirmed() {
	if m == nil {
		return
	}
	m.ordersConfirmed.Inc()
	m.monitor.Increment("orders_confirmed")
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
	m.monitor.RecordMetric("active_sessions", n)
}

func resultLabel(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}
