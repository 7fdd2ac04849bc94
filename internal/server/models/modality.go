// Package models defines server-side data models persisted in the database.
package models

import "fmt"

// Modality is the biometric method bound to a credential slot.
type Modality string

const (
	ModalityFingerprint Modality = "fingerprint"
	ModalityFace        Modality = "face"
)

// ParseModality accepts the path segment used by the HTTP API.
func ParseModality(s string) (Modality, error) {
	switch Modality(s) {
	case ModalityFingerprint, ModalityFace:
		return Modality(s), nil
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

// CheckinMethod records how an arrival was captured.
type CheckinMethod string

const (
	MethodQR          CheckinMethod = "QR"
	MethodFingerprint CheckinMethod = "fingerprint"
	MethodFace        CheckinMethod = "face"
	MethodManual      CheckinMethod = "manual"
)

// Method maps a biometric modality onto the arrival method it produces.
func (m Modality) Method() CheckinMethod {
	if m == ModalityFace {
		return MethodFace
	}
	return MethodFingerprint
}

// Valid reports whether m is one of the known check-in methods.
func (m CheckinMethod) Valid() bool {
	switch m {
	case MethodQR, MethodFingerprint, MethodFace, MethodManual:
		return true
	}
	return false
}
