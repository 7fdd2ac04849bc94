package credentials

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/dbx"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

// PostgresRepository stores binary credential material as standard base64
// text so rows stay readable in psql and exports.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, studentID string, modality models.Modality) (*models.Credential, error) {
	query :=
		`SELECT credential_id, public_key, sign_count, attestation_type, aaguid, transports, backup_eligible, created_at, updated_at
		 FROM credentials WHERE student_id = $1 AND modality = $2`

	var (
		credID, pubKey, aaguid, transports string
		signCount                          int64
	)
	c := &models.Credential{StudentID: studentID, Modality: modality}
	err := r.db.QueryRowContext(ctx, query, studentID, string(modality)).
		Scan(&credID, &pubKey, &signCount, &c.AttestationType, &aaguid, &transports, &c.BackupEligible, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if c.CredentialID, err = base64.StdEncoding.DecodeString(credID); err != nil {
		return nil, fmt.Errorf("corrupt credential id: %w", err)
	}
	if c.PublicKey, err = base64.StdEncoding.DecodeString(pubKey); err != nil {
		return nil, fmt.Errorf("corrupt public key: %w", err)
	}
	if c.AAGUID, err = base64.StdEncoding.DecodeString(aaguid); err != nil {
		return nil, fmt.Errorf("corrupt aaguid: %w", err)
	}
	if transports != "" {
		c.Transports = strings.Split(transports, ",")
	}
	c.SignCount = uint32(signCount)
	return c, nil
}

func (r *PostgresRepository) Put(ctx context.Context, c *models.Credential) error {
	query :=
		`INSERT INTO credentials (student_id, modality, credential_id, public_key, sign_count, attestation_type, aaguid, transports, backup_eligible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (student_id, modality)
		 DO UPDATE SET
			credential_id = EXCLUDED.credential_id,
			public_key = EXCLUDED.public_key,
			sign_count = EXCLUDED.sign_count,
			attestation_type = EXCLUDED.attestation_type,
			aaguid = EXCLUDED.aaguid,
			transports = EXCLUDED.transports,
			backup_eligible = EXCLUDED.backup_eligible,
			updated_at = now()`

	_, err := r.db.ExecContext(ctx, query,
		c.StudentID, string(c.Modality),
		base64.StdEncoding.EncodeToString(c.CredentialID),
		base64.StdEncoding.EncodeToString(c.PublicKey),
		int64(c.SignCount), c.AttestationType,
		base64.StdEncoding.EncodeToString(c.AAGUID),
		strings.Join(c.Transports, ","), c.BackupEligible)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCounter(ctx context.Context, studentID string, modality models.Modality, expected, next uint32) error {
	query :=
		`UPDATE credentials SET sign_count = $1, updated_at = now()
		 WHERE student_id = $2 AND modality = $3 AND sign_count = $4`

	res, err := r.db.ExecContext(ctx, query, int64(next), studentID, string(modality), int64(expected))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrReplayDetected
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
