// Package credentials declares the Credential Store: one public-key
// credential per (student, modality).
package credentials

import (
	"context"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when no credential is enrolled.
	Get(ctx context.Context, studentID string, modality models.Modality) (*models.Credential, error)

	// Put inserts or overwrites the credential for (StudentID, Modality).
	Put(ctx context.Context, c *models.Credential) error

	// UpdateCounter moves the signature counter from expected to next. It
	// returns common.ErrReplayDetected if the stored counter is no longer
	// expected, which means a concurrent authentication won the race.
	UpdateCounter(ctx context.Context, studentID string, modality models.Modality, expected, next uint32) error
}
