// Package students declares the student record store consulted by the
// ceremony engine and the check-in services.
package students

import (
	"context"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

// Repository defines lookups and maintenance of student records. Lookups and
// updates return common.ErrorNotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, s *models.Student) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Student, error)
	// GetByQRCode only matches active students.
	GetByQRCode(ctx context.Context, code string) (*models.Student, error)
	// List pages through students ordered by name. search matches name or
	// external ID, case-insensitively.
	List(ctx context.Context, search string, limit, offset int) ([]*models.Student, int, error)
	// Update rewrites the contact fields (external ID, name, cohort, email,
	// phone) of the student with s.ID.
	Update(ctx context.Context, s *models.Student) error
	// Deactivate clears the active flag; the record and its arrivals stay.
	Deactivate(ctx context.Context, id string) error
}
