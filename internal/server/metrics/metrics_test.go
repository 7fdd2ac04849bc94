package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Ceremony("authentication", "face", "ok")
	m.Ceremony("authentication", "face", "ok")
	m.Replay("fingerprint")
	m.CheckIn("QR", true)
	m.Swept(3)
	m.Swept(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ceremonies.WithLabelValues("authentication", "face", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReplaysDetected.WithLabelValues("fingerprint")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckIns.WithLabelValues("QR", "true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ChallengeSweeps))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Ceremony("registration", "face", "ok")
		m.Replay("face")
		m.CheckIn("manual", false)
		m.Swept(1)
	})
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/students/:externalId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, p := range []string{"/api/students/1", "/api/students/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/students/:externalId", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
