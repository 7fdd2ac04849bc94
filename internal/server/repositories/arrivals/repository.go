// Package arrivals declares persistence for arrival records. The store is the
// single place where the one-check-in-per-day rule is enforced.
package arrivals

import (
	"context"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

type Repository interface {
	// Create inserts a new arrival. It returns common.ErrAlreadyCheckedInToday
	// when the student already has an arrival on a.ArrivalDate.
	Create(ctx context.Context, a *models.Arrival) error

	// FindForDay returns the student's arrival on date (YYYY-MM-DD) or
	// common.ErrorNotFound.
	FindForDay(ctx context.Context, studentID, date string) (*models.Arrival, error)

	// List returns one page of arrivals matching f, newest first, plus the
	// total number of matches.
	List(ctx context.Context, f models.ArrivalFilter) ([]*models.Arrival, int, error)

	// Stats aggregates the arrivals of one calendar day.
	Stats(ctx context.Context, date string) (*models.DailyStats, error)
}
