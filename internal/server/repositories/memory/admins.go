package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/google/uuid"
)

type adminRepo struct {
	s *store
}

func (r *adminRepo) Create(_ context.Context, a *models.Admin) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.admins[a.Username]; ok {
		return false, nil
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	cp := *a
	r.s.admins[a.Username] = &cp
	return true, nil
}

func (r *adminRepo) GetByUsername(_ context.Context, username string) (*models.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *adminRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.admins {
		if a.ID == id {
			t := at
			a.LastLoginAt = &t
			return nil
		}
	}
	return common.ErrorNotFound
}
