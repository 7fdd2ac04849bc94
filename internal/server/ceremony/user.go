package ceremony

import (
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// user adapts a student and the credential of one modality slot to
// webauthn.User. The user handle is the student's internal ID, so it is
// stable across re-registrations.
type user struct {
	student *models.Student
	cred    *models.Credential
}

func (u user) WebAuthnID() []byte          { return []byte(u.student.ID) }
func (u user) WebAuthnName() string        { return u.student.ExternalID }
func (u user) WebAuthnDisplayName() string { return u.student.Name }

func (u user) WebAuthnCredentials() []webauthn.Credential {
	if u.cred == nil {
		return nil
	}
	return []webauthn.Credential{{
		ID:              u.cred.CredentialID,
		PublicKey:       u.cred.PublicKey,
		AttestationType: u.cred.AttestationType,
		Transport:       transports(u.cred),
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   true,
			BackupEligible: u.cred.BackupEligible,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    u.cred.AAGUID,
			SignCount: u.cred.SignCount,
		},
	}}
}

// transports returns the stored transports, defaulting to "internal" for
// platform authenticators that did not report any.
func transports(c *models.Credential) []protocol.AuthenticatorTransport {
	if len(c.Transports) == 0 {
		return []protocol.AuthenticatorTransport{protocol.Internal}
	}
	out := make([]protocol.AuthenticatorTransport, len(c.Transports))
	for i, t := range c.Transports {
		out[i] = protocol.AuthenticatorTransport(t)
	}
	return out
}

func toModel(studentID string, m models.Modality, c *webauthn.Credential) *models.Credential {
	ts := make([]string, len(c.Transport))
	for i, t := range c.Transport {
		ts[i] = string(t)
	}
	return &models.Credential{
		StudentID:       studentID,
		Modality:        m,
		CredentialID:    c.ID,
		PublicKey:       c.PublicKey,
		SignCount:       c.Authenticator.SignCount,
		AttestationType: c.AttestationType,
		AAGUID:          c.Authenticator.AAGUID,
		Transports:      ts,
		BackupEligible:  c.Flags.BackupEligible,
	}
}
