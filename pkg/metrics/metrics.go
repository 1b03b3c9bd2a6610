package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures a Recorder.
type Config struct {
	// Namespace is the metrics namespace.
	// Default: "gateprobe".
	Namespace string

	// Subsystem is the metrics subsystem.
	// Default: "".
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request latency in seconds.
	// Default: 1ms to ~8s, exponential.
	Buckets []float64

	// Registry registers the collectors. A *prometheus.Registry also serves
	// them through Handler.
	// Default: a fresh prometheus.NewRegistry().
	Registry prometheus.Registerer
}

// Option configures a Recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the latency histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "gateprobe",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}
}

// Recorder holds the load client's collectors. All methods are safe on a nil
// *Recorder, so callers that run without metrics pass nil.
type Recorder struct {
	gatherer prometheus.Gatherer

	connects        *prometheus.CounterVec
	activeConns     prometheus.Gauge
	envelopesSent   *prometheus.CounterVec
	envelopesRecv   *prometheus.CounterVec
	bytesSent       prometheus.Counter
	bytesRecv       prometheus.Counter
	decodeErrors    prometheus.Counter
	heartbeats      prometheus.Counter
	requestLatency  *prometheus.HistogramVec
	requestOutcomes *prometheus.CounterVec
	activeClients   prometheus.Gauge
}

// New creates a Recorder and registers its collectors.
//
// Metrics collected:
//   - gateprobe_connects_total: connection attempts by result
//   - gateprobe_active_connections: open gate connections
//   - gateprobe_envelopes_sent_total / gateprobe_envelopes_received_total: by kind
//   - gateprobe_bytes_sent_total / gateprobe_bytes_received_total
//   - gateprobe_decode_errors_total: envelopes dropped by the codec
//   - gateprobe_heartbeats_sent_total
//   - gateprobe_request_duration_seconds: round trips by operation
//   - gateprobe_requests_total: operations by outcome
//   - gateprobe_active_clients: harness clients currently running
func New(opts ...Option) *Recorder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = defaultConfig().Buckets
	}

	factory := promauto.With(cfg.Registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}

	r := &Recorder{
		connects:        counterVec("connects_total", "Gate connection attempts by result", "result"),
		activeConns:     gauge("active_connections", "Open gate connections"),
		envelopesSent:   counterVec("envelopes_sent_total", "Envelopes sent by kind", "kind"),
		envelopesRecv:   counterVec("envelopes_received_total", "Envelopes received by kind", "kind"),
		bytesSent:       counter("bytes_sent_total", "Envelope body bytes sent"),
		bytesRecv:       counter("bytes_received_total", "Envelope body bytes received"),
		decodeErrors:    counter("decode_errors_total", "Envelopes or payloads that failed to decode"),
		heartbeats:      counter("heartbeats_sent_total", "Heartbeat requests sent"),
		requestOutcomes: counterVec("requests_total", "Client operations by outcome", "op", "outcome"),
		activeClients:   gauge("active_clients", "Load harness clients currently running"),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Request round-trip time in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"op"}),
	}
	if g, ok := cfg.Registry.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r
}

// Handler serves the recorder's registry in the Prometheus text format. It
// falls back to the default gatherer when the registry cannot gather.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// RecordConnect counts a connection attempt.
func (r *Recorder) RecordConnect(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.connects.WithLabelValues("ok").Inc()
		r.activeConns.Inc()
		return
	}
	r.connects.WithLabelValues("error").Inc()
}

// RecordDisconnect marks a previously counted connection as closed.
func (r *Recorder) RecordDisconnect() {
	if r == nil {
		return
	}
	r.activeConns.Dec()
}

// RecordSent counts an outbound envelope.
func (r *Recorder) RecordSent(kind string, bytes int) {
	if r == nil {
		return
	}
	r.envelopesSent.WithLabelValues(kind).Inc()
	r.bytesSent.Add(float64(bytes))
}

// RecordReceived counts an inbound envelope.
func (r *Recorder) RecordReceived(kind string, bytes int) {
	if r == nil {
		return
	}
	r.envelopesRecv.WithLabelValues(kind).Inc()
	r.bytesRecv.Add(float64(bytes))
}

// RecordDecodeError counts a dropped envelope or payload.
func (r *Recorder) RecordDecodeError() {
	if r == nil {
		return
	}
	r.decodeErrors.Inc()
}

// RecordHeartbeat counts a heartbeat request.
func (r *Recorder) RecordHeartbeat() {
	if r == nil {
		return
	}
	r.heartbeats.Inc()
}

// RecordRequest records the outcome of an operation and, when it succeeded,
// its round-trip time.
func (r *Recorder) RecordRequest(op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestOutcomes.WithLabelValues(op, outcome).Inc()
	if outcome == OutcomeOK {
		r.requestLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}

// ClientStarted increments the running-clients gauge.
func (r *Recorder) ClientStarted() {
	if r == nil {
		return
	}
	r.activeClients.Inc()
}

// ClientFinished decrements the running-clients gauge.
func (r *Recorder) ClientFinished() {
	if r == nil {
		return
	}
	r.activeClients.Dec()
}

// Request outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)
