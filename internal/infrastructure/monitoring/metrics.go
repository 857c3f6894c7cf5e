package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session exit reasons used as label values.
const (
	ExitStopped  = "stopped"
	ExitExited   = "exited"
	ExitReplaced = "replaced"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SpawnFailures   prometheus.Counter
	SessionExits    *prometheus.CounterVec

	// Supervisor metrics
	SupervisorsActive     prometheus.Gauge
	SupervisorCorrections prometheus.Counter

	// Policy metrics
	PolicyApplications *prometheus.CounterVec

	// Device bridge metrics
	BridgeCalls    *prometheus.CounterVec
	BridgeDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the health endpoint
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveSupervisors int64   `json:"active_supervisors"`
	SpawnFailures     int64   `json:"spawn_failures"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrordeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mirrordeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mirrordeck_sessions_active",
				Help: "Number of registered mirroring sessions",
			},
		),
		SessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mirrordeck_sessions_started_total",
				Help: "Total number of mirroring processes spawned",
			},
		),
		SpawnFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mirrordeck_spawn_failures_total",
				Help: "Total number of mirroring processes that failed to start",
			},
		),
		SessionExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrordeck_session_exits_total",
				Help: "Total number of sessions that ended, by reason",
			},
			[]string{"reason"},
		),

		SupervisorsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mirrordeck_supervisors_active",
				Help: "Number of running aspect-ratio supervisors",
			},
		),
		SupervisorCorrections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mirrordeck_supervisor_corrections_total",
				Help: "Total number of window resizes issued by aspect-ratio supervisors",
			},
		),

		PolicyApplications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrordeck_policy_applications_total",
				Help: "Total number of global policy changes applied to sessions",
			},
			[]string{"policy", "enabled"},
		),

		BridgeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrordeck_bridge_calls_total",
				Help: "Total number of device bridge calls",
			},
			[]string{"op", "status"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mirrordeck_bridge_duration_seconds",
				Help:    "Device bridge call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mirrordeck_ws_connections",
				Help: "Number of active event stream connections",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "mirrordeck_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetSessionsActive sets the number of registered sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsStarted increments the spawned process counter
func (m *Metrics) IncSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// IncSpawnFailures increments the spawn failure counter
func (m *Metrics) IncSpawnFailures() {
	if m == nil {
		return
	}
	m.SpawnFailures.Inc()
	m.mu.Lock()
	m.snapshot.SpawnFailures++
	m.mu.Unlock()
}

// RecordSessionExit counts a session ending for reason.
func (m *Metrics) RecordSessionExit(reason string) {
	if m == nil {
		return
	}
	m.SessionExits.WithLabelValues(reason).Inc()
}

// SetSupervisorsActive sets the number of running supervisors
func (m *Metrics) SetSupervisorsActive(count int) {
	if m == nil {
		return
	}
	m.SupervisorsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSupervisors = int64(count)
	m.mu.Unlock()
}

// IncSupervisorCorrections increments the resize counter
func (m *Metrics) IncSupervisorCorrections() {
	if m == nil {
		return
	}
	m.SupervisorCorrections.Inc()
}

// RecordPolicyApplied records a global policy change
func (m *Metrics) RecordPolicyApplied(policy string, enabled bool) {
	if m == nil {
		return
	}
	value := "false"
	if enabled {
		value = "true"
	}
	m.PolicyApplications.WithLabelValues(policy, value).Inc()
}

// RecordBridgeCall records a device bridge call
func (m *Metrics) RecordBridgeCall(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BridgeCalls.WithLabelValues(op, status).Inc()
	m.BridgeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncWSConnections increments event stream connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements event stream connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
