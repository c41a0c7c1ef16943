package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/models"
)

// TokenRepository handles issuer bearer token data access
type TokenRepository struct {
	db *db.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(database *db.DB) *TokenRepository {
	return &TokenRepository{db: database}
}

// Create creates a new issuer token
func (r *TokenRepository) Create(ctx context.Context, token *models.IssuerToken) error {
	query := `
		INSERT INTO issuer_tokens (issuer_id, token_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query),
		token.IssuerID,
		token.TokenHash,
		token.CreatedAt,
		nullTime(token.ExpiresAt),
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("failed to create issuer token: %w", err)
	}

	return nil
}

// ValidateToken returns the unexpired token matching the hash
func (r *TokenRepository) ValidateToken(ctx context.Context, tokenHash string, now time.Time) (*models.IssuerToken, error) {
	query := `
		SELECT id, issuer_id, token_hash, created_at, expires_at, last_used_at
		FROM issuer_tokens
		WHERE token_hash = ? AND (expires_at IS NULL OR expires_at > ?)
	`

	token, err := scanToken(r.db.QueryRowContext(ctx, r.db.Rebind(query), tokenHash, now))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("token not found or expired: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	return token, nil
}

// UpdateLastUsed updates the last_used_at timestamp
func (r *TokenRepository) UpdateLastUsed(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE issuer_tokens
		SET last_used_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), at, id)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	return nil
}

// ListByIssuer lists all tokens for an issuer
func (r *TokenRepository) ListByIssuer(ctx context.Context, issuerID string) ([]*models.IssuerToken, error) {
	query := `
		SELECT id, issuer_id, token_hash, created_at, expires_at, last_used_at
		FROM issuer_tokens
		WHERE issuer_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), issuerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.IssuerToken

	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// Delete deletes a token by ID
func (r *TokenRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM issuer_tokens WHERE id = ?`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}

func scanToken(row rowScanner) (*models.IssuerToken, error) {
	token := &models.IssuerToken{}
	var expiresAt, lastUsedAt sql.NullTime

	err := row.Scan(
		&token.ID,
		&token.IssuerID,
		&token.TokenHash,
		&token.CreatedAt,
		&expiresAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		token.ExpiresAt = &t
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		token.LastUsedAt = &t
	}

	return token, nil
}
