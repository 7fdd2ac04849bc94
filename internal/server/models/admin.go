package models

import "time"

// Administrator roles. Supervisors may record and review arrivals; only
// admins manage students and export reports.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

type Admin struct {
	ID           string
	Username     string
	Email        string
	Name         string
	PasswordHash []byte
	Role         string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
