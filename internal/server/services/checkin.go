package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/lateness"
	"github.com/dmitrijs2005/latecheck/internal/server/metrics"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const dateLayout = "2006-01-02"

// AlreadyCheckedInError is returned when the student already has an arrival
// for the calendar day. It matches common.ErrAlreadyCheckedInToday.
type AlreadyCheckedInError struct {
	Existing *models.Arrival
}

func (e *AlreadyCheckedInError) Error() string {
	return common.ErrAlreadyCheckedInToday.Error()
}

func (e *AlreadyCheckedInError) Unwrap() error {
	return common.ErrAlreadyCheckedInToday
}

// CheckinService records arrivals. Every entry point (QR, biometric, manual)
// ends in Record, and the arrivals store rejects a second arrival for the
// same student and day.
type CheckinService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clockwork.Clock
	loc         *time.Location
	cutoff      string
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewCheckinService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock clockwork.Clock,
	log logging.Logger, mt *metrics.Metrics) (*CheckinService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("error loading time zone: %w", err)
	}
	if err := lateness.ValidCutoff(cfg.LateCutoff); err != nil {
		return nil, err
	}
	return &CheckinService{
		db:          db,
		repomanager: m,
		clock:       clock,
		loc:         loc,
		cutoff:      cfg.LateCutoff,
		log:         log,
		metrics:     mt,
	}, nil
}

// Record creates the student's arrival for today, classified against the
// configured cutoff.
func (s *CheckinService) Record(ctx context.Context, student *models.Student, method models.CheckinMethod, d models.CheckinDetails) (*models.Arrival, error) {
	now := s.clock.Now().In(s.loc)
	at := lateness.Clock(now)

	res, err := lateness.Classify(at, s.cutoff)
	if err != nil {
		return nil, err
	}

	a := &models.Arrival{
		ID:          uuid.NewString(),
		StudentID:   student.ID,
		ExternalID:  student.ExternalID,
		Name:        student.Name,
		Cohort:      student.Cohort,
		Timestamp:   now,
		ArrivalDate: now.Format(dateLayout),
		Method:      method,
		ArrivalTime: at,
		Cutoff:      s.cutoff,
		IsLate:      res.IsLate,
		MinutesLate: res.MinutesLate,
		Notes:       d.Notes,
		Location:    d.Location,
		Device:      d.Device,
	}

	repo := s.repomanager.Arrivals(s.db)
	if err := repo.Create(ctx, a); err != nil {
		if errors.Is(err, common.ErrAlreadyCheckedInToday) {
			existing, ferr := repo.FindForDay(ctx, student.ID, a.ArrivalDate)
			if ferr != nil {
				s.log.Warn(ctx, "existing arrival lookup failed", "student_id", student.ID, "error", ferr)
			}
			return nil, &AlreadyCheckedInError{Existing: existing}
		}
		return nil, fmt.Errorf("error creating arrival: %w", err)
	}

	s.metrics.CheckIn(string(method), a.IsLate)
	s.log.Info(ctx, "arrival recorded", "student_id", student.ID, "method", method,
		"arrival_time", at, "late", a.IsLate, "minutes_late", a.MinutesLate)
	return a, nil
}

// CheckInByQR resolves an active student by QR code and records the arrival.
func (s *CheckinService) CheckInByQR(ctx context.Context, code string, d models.CheckinDetails) (*models.Student, *models.Arrival, error) {
	if code == "" {
		return nil, nil, common.ErrorValidation
	}
	st, err := s.repomanager.Students(s.db).GetByQRCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error loading student: %w", err)
	}

	a, err := s.Record(ctx, st, models.MethodQR, d)
	if err != nil {
		return st, nil, err
	}
	return st, a, nil
}

// CheckInManual records an arrival entered by an administrator.
func (s *CheckinService) CheckInManual(ctx context.Context, externalID string, d models.CheckinDetails) (*models.Student, *models.Arrival, error) {
	st, err := s.repomanager.Students(s.db).GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error loading student: %w", err)
	}

	a, err := s.Record(ctx, st, models.MethodManual, d)
	if err != nil {
		return st, nil, err
	}
	return st, a, nil
}

// Summary is the human readable outcome shown on the kiosk.
func Summary(a *models.Arrival) string {
	if a.IsLate {
		return fmt.Sprintf("late by %d minutes", a.MinutesLate)
	}
	return "on time"
}
