package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/jonboulle/clockwork"
)

// ArrivalService answers the administrator's listing and statistics queries.
type ArrivalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clockwork.Clock
	loc         *time.Location
}

func NewArrivalService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock clockwork.Clock) (*ArrivalService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("error loading time zone: %w", err)
	}
	return &ArrivalService{db: db, repomanager: m, clock: clock, loc: loc}, nil
}

// Today is the current calendar day in the configured zone.
func (s *ArrivalService) Today() string {
	return s.clock.Now().In(s.loc).Format(dateLayout)
}

// DayRange returns the first and last instant of date in the configured zone.
func (s *ArrivalService) DayRange(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad date %q", common.ErrorValidation, date)
	}
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func (s *ArrivalService) List(ctx context.Context, f models.ArrivalFilter) (*Page[*models.Arrival], error) {
	if f.Method != "" && !f.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", common.ErrorValidation, f.Method)
	}
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)

	items, total, err := s.repomanager.Arrivals(s.db).List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error listing arrivals: %w", err)
	}
	return &Page[*models.Arrival]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Stats summarises date, or today when date is empty.
func (s *ArrivalService) Stats(ctx context.Context, date string) (*models.DailyStats, error) {
	if date == "" {
		date = s.Today()
	} else if _, _, err := s.DayRange(date); err != nil {
		return nil, err
	}

	st, err := s.repomanager.Arrivals(s.db).Stats(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("error loading stats: %w", err)
	}
	return st, nil
}
