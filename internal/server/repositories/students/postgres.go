package students

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

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectStudent = `SELECT s.id, s.external_id, s.name, s.cohort, s.email, s.phone, COALESCE(s.qr_code, ''), s.active, s.created_at,
		EXISTS (SELECT 1 FROM credentials c WHERE c.student_id = s.id AND c.modality = 'fingerprint'),
		EXISTS (SELECT 1 FROM credentials c WHERE c.student_id = s.id AND c.modality = 'face')
		FROM students s`

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(&s.ID, &s.ExternalID, &s.Name, &s.Cohort, &s.Email, &s.Phone, &s.QRCode, &s.Active, &s.CreatedAt,
		&s.FingerprintRegistered, &s.FaceRegistered)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Student) (*models.Student, error) {
	query :=
		`INSERT INTO students (external_id, name, cohort, email, phone, qr_code, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, s.ExternalID, s.Name, s.Cohort, s.Email, s.Phone, s.QRCode, s.Active).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, selectStudent+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	return r.getOne(ctx, "s.id = $1", id)
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Student, error) {
	return r.getOne(ctx, "s.external_id = $1", externalID)
}

func (r *PostgresRepository) GetByQRCode(ctx context.Context, code string) (*models.Student, error) {
	return r.getOne(ctx, "s.qr_code = $1 AND s.active", code)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches search literally anywhere in the column.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

const searchWhere = ` WHERE (s.name ILIKE $1 ESCAPE '\' OR s.external_id ILIKE $1 ESCAPE '\')`

func (r *PostgresRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Student, int, error) {
	pattern := containsPattern(search)

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM students s`+searchWhere, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		selectStudent+searchWhere+` ORDER BY s.name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// exec runs a single-row update and maps zero affected rows to NotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Student) error {
	return r.exec(ctx,
		`UPDATE students SET external_id = $2, name = $3, cohort = $4, email = $5, phone = $6 WHERE id = $1`,
		s.ID, s.ExternalID, s.Name, s.Cohort, s.Email, s.Phone)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE students SET active = false WHERE id = $1`, id)
}
