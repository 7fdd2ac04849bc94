package arrivals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/dbx"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueStudentDay = "arrivals_student_day_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectArrival = `SELECT id, student_id, external_id, name, cohort, ts, to_char(arrival_date, 'YYYY-MM-DD'), method,
		arrival_time, cutoff, is_late, minutes_late, notes, latitude, longitude, device_type, device_browser, device_os
		FROM arrivals`

type scanner interface {
	Scan(dest ...any) error
}

func scanArrival(row scanner) (*models.Arrival, error) {
	var (
		a                     models.Arrival
		method                string
		lat, lng              sql.NullFloat64
		devType, browser, osN string
	)
	err := row.Scan(&a.ID, &a.StudentID, &a.ExternalID, &a.Name, &a.Cohort, &a.Timestamp, &a.ArrivalDate, &method,
		&a.ArrivalTime, &a.Cutoff, &a.IsLate, &a.MinutesLate, &a.Notes, &lat, &lng, &devType, &browser, &osN)
	if err != nil {
		return nil, err
	}
	a.Method = models.CheckinMethod(method)
	if lat.Valid && lng.Valid {
		a.Location = &models.Location{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	if devType != "" || browser != "" || osN != "" {
		a.Device = &models.Device{Type: devType, Browser: browser, OS: osN}
	}
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Arrival) error {
	query :=
		`INSERT INTO arrivals (id, student_id, external_id, name, cohort, ts, arrival_date, method,
			arrival_time, cutoff, is_late, minutes_late, notes, latitude, longitude, device_type, device_browser, device_os)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	var lat, lng sql.NullFloat64
	if a.Location != nil {
		lat = sql.NullFloat64{Float64: a.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: a.Location.Longitude, Valid: true}
	}
	var dev models.Device
	if a.Device != nil {
		dev = *a.Device
	}

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.StudentID, a.ExternalID, a.Name, a.Cohort, a.Timestamp, a.ArrivalDate, string(a.Method),
		a.ArrivalTime, a.Cutoff, a.IsLate, a.MinutesLate, a.Notes, lat, lng, dev.Type, dev.Browser, dev.OS)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueStudentDay {
			return common.ErrAlreadyCheckedInToday
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindForDay(ctx context.Context, studentID, date string) (*models.Arrival, error) {
	a, err := scanArrival(r.db.QueryRowContext(ctx, selectArrival+` WHERE student_id = $1 AND arrival_date = $2`, studentID, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// where renders the filter as a WHERE clause with positional args.
func where(f models.ArrivalFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("ts >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("ts <= $%d", f.To)
	}
	if f.Cohort != "" {
		add("cohort = $%d", f.Cohort)
	}
	if f.Method != "" {
		add("method = $%d", string(f.Method))
	}
	if f.LateOnly {
		conds = append(conds, "is_late")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) List(ctx context.Context, f models.ArrivalFilter) ([]*models.Arrival, int, error) {
	clause, args := where(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM arrivals`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("%s%s ORDER BY ts DESC LIMIT $%d OFFSET $%d", selectArrival, clause, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Arrival
	for rows.Next() {
		a, err := scanArrival(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, date string) (*models.DailyStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT method, count(*), count(*) FILTER (WHERE is_late)
		 FROM arrivals WHERE arrival_date = $1 GROUP BY method`, date)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	stats := &models.DailyStats{Date: date, ByMethod: map[models.CheckinMethod]int{}}
	for rows.Next() {
		var (
			method      string
			total, late int
		)
		if err := rows.Scan(&method, &total, &late); err != nil {
			return nil, err
		}
		stats.ByMethod[models.CheckinMethod(method)] = total
		stats.Total += total
		stats.Late += late
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.OnTime = stats.Total - stats.Late
	return stats, nil
}
