package models

import "time"

// Credential is the public-key credential enrolled for one
// (student, modality) slot. Re-registration overwrites it.
type Credential struct {
	StudentID       string
	Modality        Modality
	CredentialID    []byte
	PublicKey       []byte
	SignCount       uint32
	AttestationType string
	AAGUID          []byte
	Transports      []string
	BackupEligible  bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
