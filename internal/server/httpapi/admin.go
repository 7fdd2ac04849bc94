package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type qrRequest struct {
	QRCode     string           `json:"qrCode" binding:"required"`
	Location   *models.Location `json:"location"`
	DeviceInfo *models.Device   `json:"deviceInfo"`
}

type manualRequest struct {
	ExternalUserID string           `json:"externalUserId" binding:"required"`
	Notes          string           `json:"notes"`
	Location       *models.Location `json:"location"`
}

type studentRequest struct {
	ExternalUserID string `json:"externalUserId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Cohort         string `json:"cohort"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

type studentUpdateRequest struct {
	ExternalUserID *string `json:"externalUserId"`
	Name           *string `json:"name"`
	Cohort         *string `json:"cohort"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
}

type reportRequest struct {
	Date string `json:"date"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	token, a, err := h.Admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{
		"token": token,
		"admin": gin.H{"id": a.ID, "username": a.Username, "name": a.Name, "email": a.Email, "role": a.Role},
	})
}

func (h *handler) checkInQR(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "qrCode is required")
		return
	}

	st, a, err := h.Checkins.CheckInByQR(c.Request.Context(), req.QRCode, models.CheckinDetails{
		Location: req.Location,
		Device:   req.DeviceInfo,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, services.Summary(a), gin.H{"arrivalRecord": a, "user": viewOf(st)})
}

func (h *handler) checkInManual(c *gin.Context) {
	var req manualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId is required")
		return
	}

	st, a, err := h.Checkins.CheckInManual(c.Request.Context(), req.ExternalUserID, models.CheckinDetails{
		Notes:    req.Notes,
		Location: req.Location,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, services.Summary(a), gin.H{"arrivalRecord": a, "user": viewOf(st)})
}

// intQuery reads an optional integer query parameter.
func intQuery(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (h *handler) listArrivals(c *gin.Context) {
	var f models.ArrivalFilter
	var ok bool

	if f.Limit, ok = intQuery(c, "limit"); !ok {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}
	if f.Offset, ok = intQuery(c, "offset"); !ok {
		fail(c, http.StatusBadRequest, "invalid offset")
		return
	}
	if from := c.Query("from"); from != "" {
		start, _, err := h.Arrivals.DayRange(from)
		if err != nil {
			respondError(c, h.Log, err)
			return
		}
		f.From = start
	}
	if to := c.Query("to"); to != "" {
		_, end, err := h.Arrivals.DayRange(to)
		if err != nil {
			respondError(c, h.Log, err)
			return
		}
		f.To = end
	}
	if late := c.Query("lateOnly"); late != "" {
		b, err := strconv.ParseBool(late)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid lateOnly")
			return
		}
		f.LateOnly = b
	}
	f.Cohort = c.Query("cohort")
	f.Method = models.CheckinMethod(c.Query("method"))

	page, err := h.Arrivals.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *handler) stats(c *gin.Context) {
	st, err := h.Arrivals.Stats(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "", st)
}

func (h *handler) createStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId and name are required")
		return
	}

	st, err := h.Students.Create(c.Request.Context(), services.NewStudent{
		ExternalID: req.ExternalUserID,
		Name:       req.Name,
		Cohort:     req.Cohort,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, "student created", st)
}

func (h *handler) listStudents(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, ok := intQuery(c, "offset")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid offset")
		return
	}

	page, err := h.Students.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *handler) getStudent(c *gin.Context) {
	st, err := h.Students.Get(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "", st)
}

func (h *handler) updateStudent(c *gin.Context) {
	var req studentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	st, err := h.Students.Update(c.Request.Context(), c.Param("externalId"), services.StudentUpdate{
		ExternalID: req.ExternalUserID,
		Name:       req.Name,
		Cohort:     req.Cohort,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "student updated", st)
}

func (h *handler) deactivateStudent(c *gin.Context) {
	if err := h.Students.Deactivate(c.Request.Context(), c.Param("externalId")); err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "student deactivated", nil)
}

func (h *handler) exportReport(c *gin.Context) {
	var req reportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request")
			return
		}
	}

	exp, err := h.Reports.ExportDaily(c.Request.Context(), req.Date)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, "report exported", exp)
}
