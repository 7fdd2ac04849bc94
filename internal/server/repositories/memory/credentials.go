package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

type credentialRepo struct {
	s *store
}

func (r *credentialRepo) Get(_ context.Context, studentID string, modality models.Modality) (*models.Credential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.credentials[credKey{studentID, modality}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *credentialRepo) Put(_ context.Context, c *models.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	cp := *c
	cp.UpdatedAt = now
	if prev, ok := r.s.credentials[credKey{c.StudentID, c.Modality}]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	r.s.credentials[credKey{c.StudentID, c.Modality}] = &cp
	return nil
}

func (r *credentialRepo) UpdateCounter(_ context.Context, studentID string, modality models.Modality, expected, next uint32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.credentials[credKey{studentID, modality}]
	if !ok || c.SignCount != expected {
		return common.ErrReplayDetected
	}
	c.SignCount = next
	c.UpdatedAt = time.Now()
	return nil
}
