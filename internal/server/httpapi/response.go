package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondWithUser(c *gin.Context, data any, userID string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, UserID: userID})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// errorStatus maps a service error onto a status code and a client-safe
// message. Anything unrecognised is a 500 with a generic message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "student not found"
	case errors.Is(err, common.ErrNotEnrolled):
		return http.StatusBadRequest, "no credential registered for this method, register first"
	case errors.Is(err, common.ErrChallengeExpired):
		return http.StatusBadRequest, "challenge expired or not found, start again"
	case errors.Is(err, common.ErrVerificationFailed):
		return http.StatusBadRequest, "verification failed"
	case errors.Is(err, common.ErrReplayDetected):
		return http.StatusBadRequest, "authenticator rejected, please contact an administrator"
	case errors.Is(err, common.ErrAlreadyCheckedInToday):
		return http.StatusBadRequest, "already checked in today"
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrInvalidTimeFormat):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes err as an envelope. Duplicate check-ins carry the
// existing arrival so the kiosk can show it.
func respondError(c *gin.Context, log logging.Logger, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}

	var dup *services.AlreadyCheckedInError
	if errors.As(err, &dup) && dup.Existing != nil {
		c.AbortWithStatusJSON(status, Envelope{Success: false, Message: msg, Data: dup.Existing})
		return
	}
	fail(c, status, msg)
}
