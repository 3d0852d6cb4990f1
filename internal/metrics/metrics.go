// Package metrics exposes Prometheus metrics for the frame loop and the HTTP
// side channel. A nil *Collector is valid and records nothing.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-orrery/internal/engine"
)

var (
	_ engine.Recorder      = (*Collector)(nil)
	_ engine.SelectionSink = (*Collector)(nil)
)

// Collector owns a private registry so that scene re-initialisation and tests
// never collide on global registration.
type Collector struct {
	registry *prometheus.Registry

	frameDuration prometheus.Histogram
	framesTotal   prometheus.Counter
	picksTotal    *prometheus.CounterVec
	selections    *prometheus.CounterVec
	sceneNodes    prometheus.Gauge
	speed         prometheus.Gauge
	eventClients  prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_frame_duration_seconds",
			Help:    "Time spent in one frame update, including rendering.",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
		}),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_frames_total",
			Help: "Total number of frames run.",
		}),
		picksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_picks_total",
				Help: "Pointer picks by result.",
			},
			[]string{"result"},
		),
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_selections_total",
				Help: "Body selections by source.",
			},
			[]string{"source"},
		),
		sceneNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_scene_nodes",
			Help: "Live scene graph nodes, including the root.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_speed_multiplier",
			Help: "Current orbit speed multiplier.",
		}),
		eventClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_event_clients",
			Help: "Connected selection event stream clients.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"path", "method", "code"},
		),
		httpDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}

	c.registry.MustRegister(
		c.frameDuration,
		c.framesTotal,
		c.picksTotal,
		c.selections,
		c.sceneNodes,
		c.speed,
		c.eventClients,
		c.httpRequestsTotal,
		c.httpDurationSeconds,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveFrame records one frame.
func (c *Collector) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.framesTotal.Inc()
	c.frameDuration.Observe(d.Seconds())
}

// ObservePick records a pick result.
func (c *Collector) ObservePick(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.picksTotal.WithLabelValues(result).Inc()
}

// SetNodes sets the live node gauge.
func (c *Collector) SetNodes(n int) {
	if c == nil {
		return
	}
	c.sceneNodes.Set(float64(n))
}

// SetSpeed sets the speed multiplier gauge.
func (c *Collector) SetSpeed(s float64) {
	if c == nil {
		return
	}
	c.speed.Set(s)
}

// SetEventClients sets the event stream client gauge.
func (c *Collector) SetEventClients(n int) {
	if c == nil {
		return
	}
	c.eventClients.Set(float64(n))
}

// BodySelected counts a selection by source.
func (c *Collector) BodySelected(s engine.Selection) {
	if c == nil {
		return
	}
	c.selections.WithLabelValues(string(s.Source)).Inc()
}

// normalizeRoute collapses unknown paths into one label to bound cardinality.
func normalizeRoute(path string) string {
	switch path {
	case "/metrics", "/events", "/healthz", "/snapshot":
		return path
	default:
		return "other"
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer cannot hijack")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request count and duration for each request. Upgraded
// websocket connections are counted when the handler returns.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := normalizeRoute(r.URL.Path)
		c.httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		c.httpDurationSeconds.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
