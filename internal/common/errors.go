// Package common defines shared constants and sentinel errors used across
// the latecheck server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Ceremony errors.
	ErrNotEnrolled        = errors.New("no credential enrolled for modality")
	ErrChallengeExpired   = errors.New("challenge not found or expired")
	ErrVerificationFailed = errors.New("verification failed")
	ErrReplayDetected     = errors.New("signature counter did not increase")

	// Check-in errors.
	ErrAlreadyCheckedInToday = errors.New("already checked in today")
	ErrInvalidTimeFormat     = errors.New("invalid time format, expected HH:MM")
)
