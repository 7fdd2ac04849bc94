// Package httpapi exposes the check-in kiosk and administrator API over
// HTTP with gin. Every response uses the Envelope shape.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/ceremony"
	"github.com/dmitrijs2005/latecheck/internal/server/metrics"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/reports"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ceremonies is the WebAuthn side of the API; *ceremony.Engine implements it.
type Ceremonies interface {
	BeginRegistration(ctx context.Context, externalID string, m models.Modality) (*ceremony.RegistrationOptions, error)
	FinishRegistration(ctx context.Context, externalID string, m models.Modality, attestation []byte) (*models.Student, error)
	BeginAuthentication(ctx context.Context, externalID string, m models.Modality) (*ceremony.AuthenticationOptions, error)
	FinishAuthentication(ctx context.Context, externalID string, m models.Modality, assertion []byte, device *models.Device) (*ceremony.CheckIn, error)
}

// Reporter exports daily reports; *reports.Service implements it.
type Reporter interface {
	ExportDaily(ctx context.Context, date string) (*reports.Export, error)
}

type Deps struct {
	Ceremonies Ceremonies
	Checkins   *services.CheckinService
	Students   *services.StudentService
	Arrivals   *services.ArrivalService
	Admins     *services.AdminService
	Reports    Reporter

	Origins  []string
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      logging.Logger
}

type handler struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(d.Log), CORS(d.Origins))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/health", h.health)

	wa := api.Group("/webauthn/:modality", modality())
	wa.POST("/registration/options", h.registrationOptions)
	wa.POST("/registration/verify", h.registrationVerify)
	wa.POST("/authentication/options", h.authenticationOptions)
	wa.POST("/authentication/verify", h.authenticationVerify)

	api.POST("/arrivals/qr", h.checkInQR)
	api.POST("/admin/login", h.login)

	staff := api.Group("", AdminOnly(d.Admins), RequireRole(models.RoleAdmin, models.RoleSupervisor))
	staff.POST("/arrivals", h.checkInManual)
	staff.GET("/arrivals", h.listArrivals)
	staff.GET("/arrivals/stats", h.stats)
	staff.GET("/students", h.listStudents)
	staff.GET("/students/:externalId", h.getStudent)

	admin := api.Group("", AdminOnly(d.Admins), RequireRole(models.RoleAdmin))
	admin.POST("/students", h.createStudent)
	admin.PUT("/students/:externalId", h.updateStudent)
	admin.DELETE("/students/:externalId", h.deactivateStudent)
	admin.POST("/reports/daily", h.exportReport)

	return r
}

func (h *handler) health(c *gin.Context) {
	respond(c, http.StatusOK, "", gin.H{"status": "ok", "time": time.Now().UTC()})
}
