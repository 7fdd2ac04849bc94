package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/latecheck/internal/dbx"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/admins"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/arrivals"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/students"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Students(db dbx.DBTX) students.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Arrivals(db dbx.DBTX) arrivals.Repository
	Admins(db dbx.DBTX) admins.Repository
}
