package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Page is one slice of a listing plus the total number of matches.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type NewStudent struct {
	ExternalID string
	Name       string
	Cohort     string
	Email      string
	Phone      string
}

type StudentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewStudentService(db *sql.DB, m repomanager.RepositoryManager) *StudentService {
	return &StudentService{db: db, repomanager: m}
}

// QRCode builds the printable code for a student.
func QRCode(externalID string) string {
	return fmt.Sprintf("EST-%s-%s", externalID, uuid.NewString())
}

func (s *StudentService) Create(ctx context.Context, in NewStudent) (*models.Student, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ExternalID == "" || in.Name == "" {
		return nil, common.ErrorValidation
	}

	st, err := s.repomanager.Students(s.db).Create(ctx, &models.Student{
		ExternalID: in.ExternalID,
		Name:       in.Name,
		Cohort:     in.Cohort,
		Email:      in.Email,
		Phone:      in.Phone,
		QRCode:     QRCode(in.ExternalID),
		Active:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating student: %w", err)
	}
	return st, nil
}

func (s *StudentService) Get(ctx context.Context, externalID string) (*models.Student, error) {
	st, err := s.repomanager.Students(s.db).GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading student: %w", err)
	}
	return st, nil
}

func (s *StudentService) List(ctx context.Context, search string, limit, offset int) (*Page[*models.Student], error) {
	limit, offset = normalizePage(limit, offset)
	items, total, err := s.repomanager.Students(s.db).List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return &Page[*models.Student]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// StudentUpdate carries the fields to change; nil fields keep their value.
type StudentUpdate struct {
	ExternalID *string
	Name       *string
	Cohort     *string
	Email      *string
	Phone      *string
}

func (s *StudentService) Update(ctx context.Context, externalID string, in StudentUpdate) (*models.Student, error) {
	st, err := s.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&st.ExternalID, in.ExternalID)
	set(&st.Name, in.Name)
	set(&st.Cohort, in.Cohort)
	set(&st.Email, in.Email)
	set(&st.Phone, in.Phone)
	if st.ExternalID == "" || st.Name == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Students(s.db)
	if err := repo.Update(ctx, st); err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating student: %w", err)
	}

	st, err = repo.GetByID(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading student: %w", err)
	}
	return st, nil
}

// Deactivate soft-deletes a student. Deactivated students keep their history
// but can no longer check in with their QR code.
func (s *StudentService) Deactivate(ctx context.Context, externalID string) error {
	st, err := s.Get(ctx, externalID)
	if err != nil {
		return err
	}
	if err := s.repomanager.Students(s.db).Deactivate(ctx, st.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error deactivating student: %w", err)
	}
	return nil
}
