package certs

import (
	"context"
	"strings"

	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListForIssuer returns the certificates the caller issued, newest first
func (s *Service) ListForIssuer(ctx context.Context, caller auth.Identity, limit int) ([]*models.Certificate, error) {
	return s.certs.ListByIssuer(ctx, caller.IssuerID, clampLimit(limit))
}

// ListForLot returns the certificates issued for a lot, newest first
func (s *Service) ListForLot(ctx context.Context, lotID string, limit int) ([]*models.Certificate, error) {
	if strings.TrimSpace(lotID) == "" {
		return nil, ErrValidation
	}
	return s.certs.ListByLot(ctx, lotID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
