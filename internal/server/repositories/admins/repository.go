package admins

import (
	"context"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

type Repository interface {
	// Create inserts the admin unless the username is taken, in which case it
	// reports created=false and leaves the stored row alone.
	Create(ctx context.Context, a *models.Admin) (created bool, err error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
