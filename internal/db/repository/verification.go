package repository

import (
	"context"
	"fmt"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/models"
)

// VerificationRepository is the append-only store of public lookup events
type VerificationRepository struct {
	db *db.DB
}

// NewVerificationRepository creates a new verification log repository
func NewVerificationRepository(database *db.DB) *VerificationRepository {
	return &VerificationRepository{db: database}
}

// Append inserts a verification log entry
func (r *VerificationRepository) Append(ctx context.Context, entry *models.VerificationLog) error {
	query := `
		INSERT INTO certificate_verifications (certificate_id, ts, ip_hmac, ua_hmac, result, route)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query),
		entry.CertificateID,
		entry.Timestamp,
		entry.IPHMAC,
		entry.UAHMAC,
		string(entry.Result),
		string(entry.Route),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append verification log: %w", err)
	}

	return nil
}

// ListByCertificate lists verification events for a certificate, newest first
func (r *VerificationRepository) ListByCertificate(ctx context.Context, certificateID string, limit int) ([]*models.VerificationLog, error) {
	query := `
		SELECT id, certificate_id, ts, ip_hmac, ua_hmac, result, route
		FROM certificate_verifications
		WHERE certificate_id = ?
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), certificateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.VerificationLog

	for rows.Next() {
		entry := &models.VerificationLog{}
		var result, route string

		err := rows.Scan(
			&entry.ID,
			&entry.CertificateID,
			&entry.Timestamp,
			&entry.IPHMAC,
			&entry.UAHMAC,
			&result,
			&route,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification log: %w", err)
		}

		entry.Result = models.VerificationResult(result)
		entry.Route = models.VerificationRoute(route)
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// CountByResult counts events for a certificate grouped by result
func (r *VerificationRepository) CountByResult(ctx context.Context, certificateID string) (map[models.VerificationResult]int, error) {
	query := `
		SELECT result, COUNT(*)
		FROM certificate_verifications
		WHERE certificate_id = ?
		GROUP BY result
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), certificateID)
	if err != nil {
		return nil, fmt.Errorf("failed to count verification logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.VerificationResult]int)
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, fmt.Errorf("failed to scan verification count: %w", err)
		}
		counts[models.VerificationResult(result)] = n
	}

	return counts, rows.Err()
}
