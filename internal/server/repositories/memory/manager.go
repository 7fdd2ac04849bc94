// Package memory keeps every repository in process memory. It backs the
// server when no database DSN is configured and the service tests.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/latecheck/internal/dbx"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/admins"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/arrivals"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/students"
)

type credKey struct {
	studentID string
	modality  models.Modality
}

type dayKey struct {
	studentID string
	date      string
}

// store is shared by all repositories of one manager; the DBTX handed to the
// factories is ignored.
type store struct {
	mu          sync.RWMutex
	students    map[string]*models.Student
	credentials map[credKey]*models.Credential
	arrivals    []*models.Arrival
	arrivalDays map[dayKey]*models.Arrival
	admins      map[string]*models.Admin
}

type RepositoryManager struct {
	s *store
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{s: &store{
		students:    map[string]*models.Student{},
		credentials: map[credKey]*models.Credential{},
		arrivalDays: map[dayKey]*models.Arrival{},
		admins:      map[string]*models.Admin{},
	}}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *RepositoryManager) Students(dbx.DBTX) students.Repository {
	return &studentRepo{m.s}
}

func (m *RepositoryManager) Credentials(dbx.DBTX) credentials.Repository {
	return &credentialRepo{m.s}
}

func (m *RepositoryManager) Arrivals(dbx.DBTX) arrivals.Repository {
	return &arrivalRepo{m.s}
}

func (m *RepositoryManager) Admins(dbx.DBTX) admins.Repository {
	return &adminRepo{m.s}
}
