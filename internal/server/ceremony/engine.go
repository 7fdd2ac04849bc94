// Package ceremony runs the WebAuthn registration and authentication
// ceremonies for the biometric modalities. Each ceremony is two calls: Begin
// issues a challenge through the ledger and returns options for the client,
// Finish consumes that challenge and verifies the client's response.
package ceremony

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/challenges"
	"github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/metrics"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Recorder turns a verified authentication into an arrival record.
type Recorder interface {
	Record(ctx context.Context, student *models.Student, method models.CheckinMethod, d models.CheckinDetails) (*models.Arrival, error)
}

type RegistrationOptions struct {
	StudentID string
	Options   protocol.PublicKeyCredentialCreationOptions
}

type AuthenticationOptions struct {
	StudentID string
	Options   protocol.PublicKeyCredentialRequestOptions
}

// CheckIn is the outcome of a successful authentication.
type CheckIn struct {
	Student *models.Student
	Arrival *models.Arrival
}

type Engine struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ledger      challenges.Ledger
	verifier    Verifier
	recorder    Recorder
	rpID        string
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewEngine(db *sql.DB, m repomanager.RepositoryManager, ledger challenges.Ledger, verifier Verifier,
	recorder Recorder, cfg *config.Config, log logging.Logger, mt *metrics.Metrics) *Engine {
	return &Engine{
		db:          db,
		repomanager: m,
		ledger:      ledger,
		verifier:    verifier,
		recorder:    recorder,
		rpID:        cfg.RPID,
		log:         log,
		metrics:     mt,
	}
}

func (e *Engine) student(ctx context.Context, externalID string) (*models.Student, error) {
	s, err := e.repomanager.Students(e.db).GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading student: %w", err)
	}
	return s, nil
}

func (e *Engine) credential(ctx context.Context, studentID string, m models.Modality) (*models.Credential, error) {
	c, err := e.repomanager.Credentials(e.db).Get(ctx, studentID, m)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotEnrolled
		}
		return nil, fmt.Errorf("error loading credential: %w", err)
	}
	return c, nil
}

// session rebuilds the library session from a consumed challenge.
func (e *Engine) session(u user, challenge []byte) webauthn.SessionData {
	return webauthn.SessionData{
		Challenge:        base64.RawURLEncoding.EncodeToString(challenge),
		RelyingPartyID:   e.rpID,
		UserID:           u.WebAuthnID(),
		UserVerification: protocol.VerificationRequired,
	}
}

func (e *Engine) rejected(ctx context.Context, kind challenges.Kind, s *models.Student, m models.Modality, err error) error {
	args := []any{"kind", kind, "student_id", s.ID, "modality", m, "error", err}
	var perr *protocol.Error
	if errors.As(err, &perr) {
		args = append(args, "type", perr.Type, "info", perr.DevInfo)
	}
	e.log.Warn(ctx, "ceremony verification failed", args...)
	e.metrics.Ceremony(string(kind), string(m), "failed")
	return common.ErrVerificationFailed
}

// BeginRegistration issues a registration challenge for the student's
// modality slot. Any outstanding registration challenge for the slot is
// replaced.
func (e *Engine) BeginRegistration(ctx context.Context, externalID string, m models.Modality) (*RegistrationOptions, error) {
	s, err := e.student(ctx, externalID)
	if err != nil {
		return nil, err
	}

	challenge, err := e.ledger.Issue(ctx, challenges.Key{UserID: s.ID, Modality: m, Kind: challenges.KindRegistration})
	if err != nil {
		return nil, fmt.Errorf("error issuing challenge: %w", err)
	}

	creation, _, err := e.verifier.BeginRegistration(user{student: s}, func(o *protocol.PublicKeyCredentialCreationOptions) {
		o.Challenge = challenge
	})
	if err != nil {
		return nil, fmt.Errorf("error building registration options: %w", err)
	}

	e.log.Debug(ctx, "registration options issued", "student_id", s.ID, "modality", m)
	return &RegistrationOptions{StudentID: s.ID, Options: creation.Response}, nil
}

// FinishRegistration verifies an attestation response and stores the new
// credential, replacing any earlier one for the slot. The challenge is
// consumed even when verification fails.
func (e *Engine) FinishRegistration(ctx context.Context, externalID string, m models.Modality, attestation []byte) (*models.Student, error) {
	s, err := e.student(ctx, externalID)
	if err != nil {
		return nil, err
	}

	challenge, err := e.ledger.Consume(ctx, challenges.Key{UserID: s.ID, Modality: m, Kind: challenges.KindRegistration})
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(attestation)
	if err != nil {
		return nil, e.rejected(ctx, challenges.KindRegistration, s, m, err)
	}

	u := user{student: s}
	session := e.session(u, challenge)
	session.CredParams = webauthn.CredentialParametersDefault()

	cred, err := e.verifier.CreateCredential(u, session, parsed)
	if err != nil {
		return nil, e.rejected(ctx, challenges.KindRegistration, s, m, err)
	}

	if err := e.repomanager.Credentials(e.db).Put(ctx, toModel(s.ID, m, cred)); err != nil {
		return nil, fmt.Errorf("error storing credential: %w", err)
	}

	s.MarkRegistered(m)
	e.metrics.Ceremony(string(challenges.KindRegistration), string(m), "ok")
	e.log.Info(ctx, "credential registered", "student_id", s.ID, "modality", m, "attestation", cred.AttestationType)
	return s, nil
}

// BeginAuthentication issues an authentication challenge restricted to the
// credential enrolled for the modality.
func (e *Engine) BeginAuthentication(ctx context.Context, externalID string, m models.Modality) (*AuthenticationOptions, error) {
	s, err := e.student(ctx, externalID)
	if err != nil {
		return nil, err
	}
	cred, err := e.credential(ctx, s.ID, m)
	if err != nil {
		return nil, err
	}

	challenge, err := e.ledger.Issue(ctx, challenges.Key{UserID: s.ID, Modality: m, Kind: challenges.KindAuthentication})
	if err != nil {
		return nil, fmt.Errorf("error issuing challenge: %w", err)
	}

	assertion, _, err := e.verifier.BeginLogin(user{student: s, cred: cred},
		webauthn.WithAllowedCredentials([]protocol.CredentialDescriptor{{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: cred.CredentialID,
			Transport:    transports(cred),
		}}),
		webauthn.WithUserVerification(protocol.VerificationRequired),
		webauthn.WithChallenge(challenge),
	)
	if err != nil {
		return nil, fmt.Errorf("error building authentication options: %w", err)
	}

	e.log.Debug(ctx, "authentication options issued", "student_id", s.ID, "modality", m)
	return &AuthenticationOptions{StudentID: s.ID, Options: assertion.Response}, nil
}

// FinishAuthentication verifies an assertion, advances the stored signature
// counter and records the arrival.
//
// The counter must grow on every assertion. Authenticators that always
// report zero are accepted as long as the stored counter is zero too, which
// means replay protection is off for them.
func (e *Engine) FinishAuthentication(ctx context.Context, externalID string, m models.Modality, assertion []byte, device *models.Device) (*CheckIn, error) {
	s, err := e.student(ctx, externalID)
	if err != nil {
		return nil, err
	}

	challenge, err := e.ledger.Consume(ctx, challenges.Key{UserID: s.ID, Modality: m, Kind: challenges.KindAuthentication})
	if err != nil {
		return nil, err
	}

	stored, err := e.credential(ctx, s.ID, m)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBytes(assertion)
	if err != nil {
		return nil, e.rejected(ctx, challenges.KindAuthentication, s, m, err)
	}

	u := user{student: s, cred: stored}
	session := e.session(u, challenge)
	session.AllowedCredentialIDs = [][]byte{stored.CredentialID}

	validated, err := e.verifier.ValidateLogin(u, session, parsed)
	if err != nil {
		return nil, e.rejected(ctx, challenges.KindAuthentication, s, m, err)
	}

	next := validated.Authenticator.SignCount
	if validated.Authenticator.CloneWarning {
		return nil, e.replay(ctx, s, m, stored.SignCount, parsed.Response.AuthenticatorData.Counter)
	}
	if err := e.repomanager.Credentials(e.db).UpdateCounter(ctx, s.ID, m, stored.SignCount, next); err != nil {
		if errors.Is(err, common.ErrReplayDetected) {
			return nil, e.replay(ctx, s, m, stored.SignCount, next)
		}
		return nil, fmt.Errorf("error updating counter: %w", err)
	}
	e.metrics.Ceremony(string(challenges.KindAuthentication), string(m), "ok")

	arrival, err := e.recorder.Record(ctx, s, m.Method(), models.CheckinDetails{Device: device})
	if err != nil {
		return nil, err
	}
	return &CheckIn{Student: s, Arrival: arrival}, nil
}

func (e *Engine) replay(ctx context.Context, s *models.Student, m models.Modality, stored, got uint32) error {
	e.log.Warn(ctx, "signature counter did not increase, possible cloned authenticator",
		"student_id", s.ID, "modality", m, "stored_counter", stored, "reported_counter", got)
	e.metrics.Replay(string(m))
	e.metrics.Ceremony(string(challenges.KindAuthentication), string(m), "replay")
	return common.ErrReplayDetected
}
