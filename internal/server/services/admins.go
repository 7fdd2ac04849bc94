package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/auth"
	"github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/jonboulle/clockwork"
)

// AdminService authenticates administrators and issues access tokens.
type AdminService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	clock                       clockwork.Clock
	log                         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock clockwork.Clock, log logging.Logger) *AdminService {
	return &AdminService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		clock:                       clock,
		log:                         log,
	}
}

// Seed creates the configured administrator unless one with that username
// already exists.
func (s *AdminService) Seed(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	created, err := s.repomanager.Admins(s.db).Create(ctx, &models.Admin{
		Username:     username,
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}
	if created {
		s.log.Info(ctx, "default administrator created", "username", username)
	}
	return nil
}

// Login checks the password and returns a signed access token. Unknown
// users, inactive accounts and wrong passwords all yield
// common.ErrorUnauthorized.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, *models.Admin, error) {
	repo := s.repomanager.Admins(s.db)

	a, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, fmt.Errorf("error loading admin: %w", err)
	}
	if !a.Active || !auth.CheckPassword(a.PasswordHash, password) {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(a.ID, a.Username, a.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", nil, fmt.Errorf("error signing token: %w", err)
	}

	now := s.clock.Now()
	if err := repo.TouchLastLogin(ctx, a.ID, now); err != nil {
		s.log.Warn(ctx, "last login update failed", "admin_id", a.ID, "error", err)
	} else {
		a.LastLoginAt = &now
	}
	return token, a, nil
}

// Authorize resolves a bearer token to its claims.
func (s *AdminService) Authorize(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}
