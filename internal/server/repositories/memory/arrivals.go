package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

type arrivalRepo struct {
	s *store
}

func (r *arrivalRepo) Create(_ context.Context, a *models.Arrival) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := dayKey{a.StudentID, a.ArrivalDate}
	if _, ok := r.s.arrivalDays[k]; ok {
		return common.ErrAlreadyCheckedInToday
	}
	cp := *a
	r.s.arrivalDays[k] = &cp
	r.s.arrivals = append(r.s.arrivals, &cp)
	return nil
}

func (r *arrivalRepo) FindForDay(_ context.Context, studentID, date string) (*models.Arrival, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.arrivalDays[dayKey{studentID, date}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func matches(a *models.Arrival, f models.ArrivalFilter) bool {
	switch {
	case !f.From.IsZero() && a.Timestamp.Before(f.From):
		return false
	case !f.To.IsZero() && a.Timestamp.After(f.To):
		return false
	case f.Cohort != "" && a.Cohort != f.Cohort:
		return false
	case f.Method != "" && a.Method != f.Method:
		return false
	case f.LateOnly && !a.IsLate:
		return false
	}
	return true
}

func (r *arrivalRepo) List(_ context.Context, f models.ArrivalFilter) ([]*models.Arrival, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*models.Arrival
	for _, a := range r.s.arrivals {
		if matches(a, f) {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *arrivalRepo) Stats(_ context.Context, date string) (*models.DailyStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &models.DailyStats{Date: date, ByMethod: map[models.CheckinMethod]int{}}
	for _, a := range r.s.arrivals {
		if a.ArrivalDate != date {
			continue
		}
		stats.Total++
		stats.ByMethod[a.Method]++
		if a.IsLate {
			stats.Late++
		}
	}
	stats.OnTime = stats.Total - stats.Late
	return stats, nil
}
