// Package metrics exposes Prometheus collectors for the token issuer, presence tracker and chat relay.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names as constants for consistency.
const (
	MetricTokensIssued        = "livestage_tokens_issued_total"
	MetricTokenFailures       = "livestage_token_failures_total"
	MetricRoomViewers         = "livestage_room_viewers"
	MetricRoomViewersDropped  = "livestage_room_viewers_untracked_total"
	MetricChatConnections     = "livestage_chat_connections"
	MetricChatMessages        = "livestage_chat_messages_total"
	MetricChatDeliveries      = "livestage_chat_deliveries_total"
	MetricHTTPRequestsTotal   = "livestage_http_requests_total"
	MetricHTTPRequestDuration = "livestage_http_request_duration_seconds"
)

// DefaultViewerSeriesLimit caps the per-room viewer series. Room names come from
// callers, so the label set must stay bounded.
const DefaultViewerSeriesLimit = 1000

// Option customizes Metrics.
type Option func(*Metrics)

// WithViewerSeriesLimit sets how many rooms get their own viewer series. Values <= 0 keep the default.
func WithViewerSeriesLimit(n int) Option {
	return func(m *Metrics) {
		if n > 0 {
			m.viewerSeriesLimit = n
		}
	}
}

// Metrics holds every collector on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tokensIssued    *prometheus.CounterVec
	tokenFailures   *prometheus.CounterVec
	roomViewers     *prometheus.GaugeVec
	viewersDropped  prometheus.Counter
	chatConnections prometheus.Gauge
	chatMessages    prometheus.Counter
	chatDeliveries  prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec

	viewerMu          sync.Mutex
	viewerRooms       map[string]struct{}
	viewerSeriesLimit int
}

// New creates and registers all collectors, plus Go runtime and process collectors.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		registry:          prometheus.NewRegistry(),
		viewerRooms:       make(map[string]struct{}),
		viewerSeriesLimit: DefaultViewerSeriesLimit,
		tokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTokensIssued,
				Help: "Media access grants issued, by participant role",
			},
			[]string{"role"},
		),
		tokenFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTokenFailures,
				Help: "Grant requests that failed, by reason",
			},
			[]string{"reason"},
		),
		roomViewers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricRoomViewers,
				Help: "Client-reported viewers per room (approximate)",
			},
			[]string{"room"},
		),
		viewersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRoomViewersDropped,
			Help: "Viewer updates not exported because the per-room series limit was reached",
		}),
		chatConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricChatConnections,
			Help: "Open chat relay connections",
		}),
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricChatMessages,
			Help: "Chat messages accepted for relay",
		}),
		chatDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricChatDeliveries,
			Help: "Chat message deliveries to room members",
		}),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"method", "path"},
		),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokensIssued,
		m.tokenFailures,
		m.roomViewers,
		m.viewersDropped,
		m.chatConnections,
		m.chatMessages,
		m.chatDeliveries,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TokenIssued counts a successful grant.
func (m *Metrics) TokenIssued(role string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(role).Inc()
}

// TokenFailed counts a failed grant request.
func (m *Metrics) TokenFailed(reason string) {
	if m == nil {
		return
	}
	m.tokenFailures.WithLabelValues(reason).Inc()
}

// SetViewers mirrors a room's presence count. Empty rooms drop their series.
// Rooms beyond the series limit are counted in the untracked counter instead.
func (m *Metrics) SetViewers(room string, count int) {
	if m == nil {
		return
	}
	m.viewerMu.Lock()
	defer m.viewerMu.Unlock()

	_, tracked := m.viewerRooms[room]
	if count <= 0 {
		if tracked {
			delete(m.viewerRooms, room)
			m.roomViewers.DeleteLabelValues(room)
		}
		return
	}
	if !tracked {
		if len(m.viewerRooms) >= m.viewerSeriesLimit {
			m.viewersDropped.Inc()
			return
		}
		m.viewerRooms[room] = struct{}{}
	}
	m.roomViewers.WithLabelValues(room).Set(float64(count))
}

// ConnectionOpened tracks a new relay connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.chatConnections.Inc()
}

// ConnectionClosed tracks a closed relay connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.chatConnections.Dec()
}

// MessageRelayed counts one broadcast and its deliveries.
func (m *Metrics) MessageRelayed(delivered int) {
	if m == nil {
		return
	}
	m.chatMessages.Inc()
	m.chatDeliveries.Add(float64(delivered))
}

// ObserveHTTP records one finished HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
