package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/gin-gonic/gin"
)

const modalityKey = "modality"

type optionsRequest struct {
	ExternalUserID string `json:"externalUserId" binding:"required"`
}

type registrationVerifyRequest struct {
	ExternalUserID      string          `json:"externalUserId" binding:"required"`
	AttestationResponse json.RawMessage `json:"attestationResponse" binding:"required"`
}

type authenticationVerifyRequest struct {
	ExternalUserID    string          `json:"externalUserId" binding:"required"`
	AssertionResponse json.RawMessage `json:"assertionResponse" binding:"required"`
	DeviceInfo        *models.Device  `json:"deviceInfo"`
}

type studentView struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	ExternalUserID string `json:"externalUserId"`
	Cohort         string `json:"cohort,omitempty"`
}

func viewOf(s *models.Student) studentView {
	return studentView{UserID: s.ID, Name: s.Name, ExternalUserID: s.ExternalID, Cohort: s.Cohort}
}

// modality resolves the :modality path segment; unknown values are 404.
func modality() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := models.ParseModality(c.Param("modality"))
		if err != nil {
			fail(c, http.StatusNotFound, "unknown modality")
			return
		}
		c.Set(modalityKey, m)
		c.Next()
	}
}

func modalityOf(c *gin.Context) models.Modality {
	return c.MustGet(modalityKey).(models.Modality)
}

func (h *handler) registrationOptions(c *gin.Context) {
	var req optionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId is required")
		return
	}

	opts, err := h.Ceremonies.BeginRegistration(c.Request.Context(), req.ExternalUserID, modalityOf(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respondWithUser(c, opts.Options, opts.StudentID)
}

func (h *handler) registrationVerify(c *gin.Context) {
	var req registrationVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId and attestationResponse are required")
		return
	}

	m := modalityOf(c)
	st, err := h.Ceremonies.FinishRegistration(c.Request.Context(), req.ExternalUserID, m, req.AttestationResponse)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s registered", m), viewOf(st))
}

func (h *handler) authenticationOptions(c *gin.Context) {
	var req optionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId is required")
		return
	}

	opts, err := h.Ceremonies.BeginAuthentication(c.Request.Context(), req.ExternalUserID, modalityOf(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respondWithUser(c, opts.Options, opts.StudentID)
}

func (h *handler) authenticationVerify(c *gin.Context) {
	var req authenticationVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "externalUserId and assertionResponse are required")
		return
	}

	ci, err := h.Ceremonies.FinishAuthentication(c.Request.Context(), req.ExternalUserID, modalityOf(c), req.AssertionResponse, req.DeviceInfo)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, services.Summary(ci.Arrival), gin.H{
		"arrivalRecord": ci.Arrival,
		"user":          viewOf(ci.Student),
	})
}
