package models

import "time"

// Student is the enrolled user checking in. ExternalID is the national ID
// the student types at the kiosk; ID is the stable internal identifier.
type Student struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalUserId"`
	Name       string    `json:"name"`
	Cohort     string    `json:"cohort"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	QRCode     string    `json:"qrCode,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`

	// Derived from the credentials table, never written directly.
	FingerprintRegistered bool `json:"fingerprintRegistered"`
	FaceRegistered        bool `json:"faceRegistered"`
}

// Registered reports whether the student has a credential for m.
func (s *Student) Registered(m Modality) bool {
	if m == ModalityFace {
		return s.FaceRegistered
	}
	return s.FingerprintRegistered
}

// MarkRegistered sets the derived flag for m after a successful enrollment.
func (s *Student) MarkRegistered(m Modality) {
	if m == ModalityFace {
		s.FaceRegistered = true
		return
	}
	s.FingerprintRegistered = true
}
