package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/models"
)

// IssuerRepository handles issuer data access
type IssuerRepository struct {
	db *db.DB
}

// NewIssuerRepository creates a new issuer repository
func NewIssuerRepository(database *db.DB) *IssuerRepository {
	return &IssuerRepository{db: database}
}

// Create creates a new issuer
func (r *IssuerRepository) Create(ctx context.Context, issuer *models.Issuer) error {
	query := `
		INSERT INTO issuers (id, name, email, enabled, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if issuer.CreatedAt.IsZero() {
		issuer.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		issuer.ID,
		issuer.Name,
		issuer.Email,
		boolToInt(issuer.Enabled),
		issuer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create issuer: %w", err)
	}

	return nil
}

// GetByID retrieves an issuer by ID
func (r *IssuerRepository) GetByID(ctx context.Context, id string) (*models.Issuer, error) {
	query := `
		SELECT id, name, email, enabled, created_at
		FROM issuers
		WHERE id = ?
	`

	issuer, err := scanIssuer(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issuer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer: %w", err)
	}

	return issuer, nil
}

// List lists all issuers
func (r *IssuerRepository) List(ctx context.Context) ([]*models.Issuer, error) {
	query := `
		SELECT id, name, email, enabled, created_at
		FROM issuers
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuers: %w", err)
	}
	defer rows.Close()

	var issuers []*models.Issuer

	for rows.Next() {
		issuer, err := scanIssuer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issuer: %w", err)
		}
		issuers = append(issuers, issuer)
	}

	return issuers, rows.Err()
}

// SetEnabled enables or disables an issuer
func (r *IssuerRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE issuers SET enabled = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("failed to update issuer: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("issuer %s: %w", id, ErrNotFound)
	}

	return nil
}

func scanIssuer(row rowScanner) (*models.Issuer, error) {
	issuer := &models.Issuer{}
	var enabled int

	err := row.Scan(
		&issuer.ID,
		&issuer.Name,
		&issuer.Email,
		&enabled,
		&issuer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	issuer.Enabled = enabled == 1
	return issuer, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
