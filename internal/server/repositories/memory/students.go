package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/google/uuid"
)

type studentRepo struct {
	s *store
}

// view copies a stored student and fills the registration flags.
func (s *store) view(st *models.Student) *models.Student {
	c := *st
	_, c.FingerprintRegistered = s.credentials[credKey{st.ID, models.ModalityFingerprint}]
	_, c.FaceRegistered = s.credentials[credKey{st.ID, models.ModalityFace}]
	return &c
}

func (r *studentRepo) Create(_ context.Context, st *models.Student) (*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.students {
		if existing.ExternalID == st.ExternalID || (st.QRCode != "" && existing.QRCode == st.QRCode) {
			return nil, common.ErrorAlreadyExists
		}
	}
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now()
	c := *st
	r.s.students[st.ID] = &c
	return st, nil
}

func (r *studentRepo) find(match func(*models.Student) bool) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.students {
		if match(st) {
			return r.s.view(st), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *studentRepo) GetByID(_ context.Context, id string) (*models.Student, error) {
	return r.find(func(s *models.Student) bool { return s.ID == id })
}

func (r *studentRepo) GetByExternalID(_ context.Context, externalID string) (*models.Student, error) {
	return r.find(func(s *models.Student) bool { return s.ExternalID == externalID })
}

func (r *studentRepo) GetByQRCode(_ context.Context, code string) (*models.Student, error) {
	return r.find(func(s *models.Student) bool { return s.Active && s.QRCode == code })
}

func (r *studentRepo) List(_ context.Context, search string, limit, offset int) ([]*models.Student, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(search)
	var matched []*models.Student
	for _, st := range r.s.students {
		if strings.Contains(strings.ToLower(st.Name), needle) || strings.Contains(strings.ToLower(st.ExternalID), needle) {
			matched = append(matched, r.s.view(st))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return page(matched, limit, offset), len(matched), nil
}

func (r *studentRepo) Update(_ context.Context, st *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.students[st.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, other := range r.s.students {
		if id != st.ID && other.ExternalID == st.ExternalID {
			return common.ErrorAlreadyExists
		}
	}
	cur.ExternalID, cur.Name, cur.Cohort, cur.Email, cur.Phone = st.ExternalID, st.Name, st.Cohort, st.Email, st.Phone
	return nil
}

func (r *studentRepo) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return common.ErrorNotFound
	}
	st.Active = false
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
