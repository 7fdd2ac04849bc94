// Package metrics exposes Prometheus collectors for ceremonies, check-ins and
// HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "latecheck"

type Metrics struct {
	Ceremonies      *prometheus.CounterVec
	ReplaysDetected *prometheus.CounterVec
	CheckIns        *prometheus.CounterVec
	ChallengeSweeps prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers every collector on reg. Passing a fresh prometheus.Registry
// keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ceremonies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ceremonies_total",
			Help:      "Finished WebAuthn ceremonies by kind, modality and outcome.",
		}, []string{"kind", "modality", "outcome"}),
		ReplaysDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replays_detected_total",
			Help:      "Assertions rejected because the signature counter did not increase.",
		}, []string{"modality"}),
		CheckIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Recorded arrivals by method and lateness.",
		}, []string{"method", "late"}),
		ChallengeSweeps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_expired_total",
			Help:      "Unconsumed challenges dropped by the sweeper.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Ceremony(kind, modality, outcome string) {
	if m == nil {
		return
	}
	m.Ceremonies.WithLabelValues(kind, modality, outcome).Inc()
}

func (m *Metrics) Replay(modality string) {
	if m == nil {
		return
	}
	m.ReplaysDetected.WithLabelValues(modality).Inc()
}

func (m *Metrics) CheckIn(method string, late bool) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(method, strconv.FormatBool(late)).Inc()
}

func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChallengeSweeps.Add(float64(n))
}

// Middleware records request counts and latency keyed by the matched route
// template, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
