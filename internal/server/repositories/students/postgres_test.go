package students

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var studentCols = []string{"id", "external_id", "name", "cohort", "email", "phone", "qr_code", "active", "created_at", "fp", "face"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+students\s*\(external_id,\s*name,\s*cohort,\s*email,\s*phone,\s*qr_code,\s*active\).*RETURNING\s+id,\s*created_at$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("1020304050", "Ana Gómez", "2675432", "", "", "EST-1020304050-x", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("s-1", now))

	got, err := repo.Create(context.Background(), &models.Student{
		ExternalID: "1020304050", Name: "Ana Gómez", Cohort: "2675432", QRCode: "EST-1020304050-x", Active: true,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "s-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected student: %+v", got)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+students`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Student{ExternalID: "1"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestGetByExternalID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+s\.id,.*FROM\s+students\s+s\s+WHERE\s+s\.external_id\s*=\s*\$1$`
	mock.ExpectQuery(q).
		WithArgs("1020304050").
		WillReturnRows(sqlmock.NewRows(studentCols).
			AddRow("s-1", "1020304050", "Ana", "2675432", "", "", "EST-1", true, time.Now(), true, false))

	got, err := repo.GetByExternalID(context.Background(), "1020304050")
	if err != nil {
		t.Fatalf("GetByExternalID error: %v", err)
	}
	if got.ID != "s-1" || !got.FingerprintRegistered || got.FaceRegistered {
		t.Fatalf("unexpected student: %+v", got)
	}
}

func TestGetByExternalID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+s\.external_id`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByExternalID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByQRCode_OnlyActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+s\.qr_code\s*=\s*\$1\s+AND\s+s\.active$`).
		WithArgs("EST-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByQRCode(context.Background(), "EST-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+students`).
		WithArgs("%an%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`ORDER\s+BY\s+s\.name\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
		WithArgs("%an%", 10, 0).
		WillReturnRows(sqlmock.NewRows(studentCols).
			AddRow("s-1", "1", "Ana", "c", "", "", "", true, time.Now(), false, false).
			AddRow("s-2", "2", "Juan", "c", "", "", "", true, time.Now(), false, true))

	got, total, err := repo.List(context.Background(), "an", 10, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 2 || len(got) != 2 || !got[1].FaceRegistered {
		t.Fatalf("unexpected result: total=%d %+v", total, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestList_EscapesWildcards(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := `%50\%\_off\\x%`
	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+students\s+s\s+WHERE\s+\(s\.name\s+ILIKE\s+\$1\s+ESCAPE`).
		WithArgs(want).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER\s+BY\s+s\.name`).
		WithArgs(want, 10, 0).
		WillReturnRows(sqlmock.NewRows(studentCols))

	got, total, err := repo.List(context.Background(), `50%_off\x`, 10, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 0 || len(got) != 0 {
		t.Fatalf("unexpected result: total=%d %+v", total, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+students\s+SET\s+external_id\s*=\s*\$2,\s*name\s*=\s*\$3,\s*cohort\s*=\s*\$4,\s*email\s*=\s*\$5,\s*phone\s*=\s*\$6\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).
		WithArgs("s-1", "1020", "Ana María", "2675432", "ana@example.com", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("s-404", "1", "X", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).
		WithArgs("s-2", "1020", "Dup", "", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	ctx := context.Background()
	if err := repo.Update(ctx, &models.Student{ID: "s-1", ExternalID: "1020", Name: "Ana María", Cohort: "2675432", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err := repo.Update(ctx, &models.Student{ID: "s-404", ExternalID: "1", Name: "X"}); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if err := repo.Update(ctx, &models.Student{ID: "s-2", ExternalID: "1020", Name: "Dup"}); !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+students\s+SET\s+active\s*=\s*false\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("s-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("s-404").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("s-2").WillReturnError(errors.New("conn reset"))

	ctx := context.Background()
	if err := repo.Deactivate(ctx, "s-1"); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
	if err := repo.Deactivate(ctx, "s-404"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if err := repo.Deactivate(ctx, "s-2"); err == nil || !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
