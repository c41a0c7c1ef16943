package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/models"
)

// ErrNotFound is returned by point lookups when no record matches
var ErrNotFound = errors.New("record not found")

// CertificateRepository handles certificate record data access
type CertificateRepository struct {
	db *db.DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(database *db.DB) *CertificateRepository {
	return &CertificateRepository{db: database}
}

const certificateColumns = `
	certificate_id, schema_version, public_fingerprint, version, status,
	issued_at, revoked_at, revoked_reason, lot_id, issuer_id, expertise_id,
	data_public, pdf_key, pdf_content_hash, pdf_size,
	verification_count, last_verified_at, metadata`

// Create creates a new certificate record
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	dataPublic, err := json.Marshal(cert.DataPublic)
	if err != nil {
		return fmt.Errorf("failed to encode public data: %w", err)
	}

	var metadata sql.NullString
	if cert.Metadata != nil {
		b, err := json.Marshal(cert.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	if cert.SchemaVersion == 0 {
		cert.SchemaVersion = models.CertificateSchemaVersion
	}

	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		cert.CertificateID,
		cert.SchemaVersion,
		cert.PublicFingerprint,
		cert.Version,
		string(cert.Status),
		cert.IssuedAt,
		nullTime(cert.RevokedAt),
		nullString(cert.RevokedReason),
		cert.LotID,
		cert.IssuerID,
		nullString(cert.ExpertiseID),
		string(dataPublic),
		cert.PDF.Key,
		cert.PDF.ContentHash,
		cert.PDF.Size,
		cert.VerificationCount,
		nullTime(cert.LastVerifiedAt),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// GetByID retrieves a certificate by its ID
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE certificate_id = ?`

	cert, err := scanCertificate(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("certificate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	return cert, nil
}

// Revoke transitions a valid certificate to revoked. It reports false when the
// record is missing or was already revoked, in which case nothing is written.
func (r *CertificateRepository) Revoke(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE certificates
		SET status = ?, revoked_at = ?, revoked_reason = ?
		WHERE certificate_id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		string(models.StatusRevoked), at, reason, id, string(models.StatusValid))
	if err != nil {
		return false, fmt.Errorf("failed to revoke certificate: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

// IncrementVerificationCount atomically bumps the counter and stamps last_verified_at
func (r *CertificateRepository) IncrementVerificationCount(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE certificates
		SET verification_count = verification_count + 1, last_verified_at = ?
		WHERE certificate_id = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), at, id)
	if err != nil {
		return fmt.Errorf("failed to increment verification count: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("certificate %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListByLot lists certificates issued for a lot, newest first
func (r *CertificateRepository) ListByLot(ctx context.Context, lotID string, limit int) ([]*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + `
		FROM certificates
		WHERE lot_id = ?
		ORDER BY issued_at DESC
		LIMIT ?
	`
	return r.list(ctx, query, lotID, limit)
}

// ListByIssuer lists certificates issued by an issuer, newest first
func (r *CertificateRepository) ListByIssuer(ctx context.Context, issuerID string, limit int) ([]*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + `
		FROM certificates
		WHERE issuer_id = ?
		ORDER BY issued_at DESC
		LIMIT ?
	`
	return r.list(ctx, query, issuerID, limit)
}

// ListPDFKeys returns every stored blob key referenced by a certificate
func (r *CertificateRepository) ListPDFKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pdf_key FROM certificates`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan pdf key: %w", err)
		}
		keys[key] = struct{}{}
	}

	return keys, rows.Err()
}

func (r *CertificateRepository) list(ctx context.Context, query, arg string, limit int) ([]*models.Certificate, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), arg, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*models.Certificate

	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	cert := &models.Certificate{}
	var (
		status                    string
		revokedAt, lastVerifiedAt sql.NullTime
		revokedReason, expertise  sql.NullString
		dataPublic                string
		metadata                  sql.NullString
	)

	err := row.Scan(
		&cert.CertificateID,
		&cert.SchemaVersion,
		&cert.PublicFingerprint,
		&cert.Version,
		&status,
		&cert.IssuedAt,
		&revokedAt,
		&revokedReason,
		&cert.LotID,
		&cert.IssuerID,
		&expertise,
		&dataPublic,
		&cert.PDF.Key,
		&cert.PDF.ContentHash,
		&cert.PDF.Size,
		&cert.VerificationCount,
		&lastVerifiedAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	cert.Status = models.Status(status)
	if revokedAt.Valid {
		t := revokedAt.Time
		cert.RevokedAt = &t
	}
	if revokedReason.Valid {
		cert.RevokedReason = revokedReason.String
	}
	if expertise.Valid {
		cert.ExpertiseID = expertise.String
	}
	if lastVerifiedAt.Valid {
		t := lastVerifiedAt.Time
		cert.LastVerifiedAt = &t
	}
	if err := json.Unmarshal([]byte(dataPublic), &cert.DataPublic); err != nil {
		return nil, fmt.Errorf("failed to decode public data: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		cert.Metadata = &models.IssuanceMetadata{}
		if err := json.Unmarshal([]byte(metadata.String), cert.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return cert, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
