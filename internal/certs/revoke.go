package certs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/internal/policy"
)

// RevokeResult describes the revoked certificate
type RevokeResult struct {
	CertificateID  string
	RevokedAt      time.Time
	AlreadyRevoked bool
}

// Revoke moves a certificate from valid to revoked on behalf of its issuer.
// Revoking twice keeps the first revocation time and reason.
func (s *Service) Revoke(ctx context.Context, certificateID string, caller auth.Identity, reason string) (*RevokeResult, error) {
	logger := s.logger.Session("revoke", lager.Data{"certificate_id": certificateID, "issuer_id": caller.IssuerID})

	reason, err := s.validator.ValidateRevokeReason(reason)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cert, err := s.get(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	switch err := s.validator.ValidateRevoke(cert, caller.IssuerID); {
	case errors.Is(err, policy.ErrNotIssuer):
		logger.Info("forbidden", lager.Data{"owner": cert.IssuerID})
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.Is(err, policy.ErrAlreadyRevoked):
		return alreadyRevoked(cert), nil
	case err != nil:
		return nil, err
	}

	at := s.now()
	changed, err := s.certs.Revoke(ctx, certificateID, reason, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with a concurrent revocation.
		cert, err := s.get(ctx, certificateID)
		if err != nil {
			return nil, err
		}
		if !cert.IsRevoked() {
			return nil, fmt.Errorf("certificate %s was not revoked", certificateID)
		}
		return alreadyRevoked(cert), nil
	}

	logger.Info("revoked", lager.Data{"reason": reason})

	return &RevokeResult{CertificateID: certificateID, RevokedAt: at}, nil
}

func (s *Service) get(ctx context.Context, certificateID string) (*models.Certificate, error) {
	cert, err := s.certs.GetByID(ctx, certificateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("certificate %s: %w", certificateID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return cert, nil
}

func alreadyRevoked(cert *models.Certificate) *RevokeResult {
	res := &RevokeResult{CertificateID: cert.CertificateID, AlreadyRevoked: true}
	if cert.RevokedAt != nil {
		res.RevokedAt = *cert.RevokedAt
	}
	return res
}
