package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
)

// ErrUnauthenticated is returned for missing, unknown, expired or disabled credentials
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller of an admin operation
type Identity struct {
	IssuerID string
	Email    string
}

// Verifier turns a bearer token into a caller identity
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// TokenStore is the token persistence the verifier needs
type TokenStore interface {
	ValidateToken(ctx context.Context, tokenHash string, now time.Time) (*models.IssuerToken, error)
	UpdateLastUsed(ctx context.Context, id int64, at time.Time) error
}

// IssuerStore is the issuer persistence the verifier needs
type IssuerStore interface {
	GetByID(ctx context.Context, id string) (*models.Issuer, error)
}

// TokenVerifier verifies opaque issuer tokens minted by the admin CLI
type TokenVerifier struct {
	tokens  TokenStore
	issuers IssuerStore
	logger  lager.Logger
	now     func() time.Time
}

// NewTokenVerifier creates a verifier backed by the issuer and token repositories
func NewTokenVerifier(tokens TokenStore, issuers IssuerStore, logger lager.Logger) *TokenVerifier {
	return &TokenVerifier{
		tokens:  tokens,
		issuers: issuers,
		logger:  logger.Session("token-verifier"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Verify resolves a bearer token to the issuer that owns it
func (v *TokenVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	now := v.now()
	stored, err := v.tokens.ValidateToken(ctx, HashToken(token), now)
	if errors.Is(err, repository.ErrNotFound) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to validate token: %w", err)
	}

	issuer, err := v.issuers.GetByID(ctx, stored.IssuerID)
	if errors.Is(err, repository.ErrNotFound) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load issuer: %w", err)
	}
	if !issuer.Enabled {
		v.logger.Info("issuer-disabled", lager.Data{"issuer_id": issuer.ID})
		return Identity{}, ErrUnauthenticated
	}

	if err := v.tokens.UpdateLastUsed(ctx, stored.ID, now); err != nil {
		v.logger.Error("update-last-used-failed", err, lager.Data{"token_id": stored.ID})
	}

	return Identity{IssuerID: issuer.ID, Email: issuer.Email}, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
