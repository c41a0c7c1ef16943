package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamscao/lotcert/internal/models"
)

const maxReasonLength = 500

// Policy violations
var (
	ErrMissingField   = errors.New("required field missing")
	ErrNotIssuer      = errors.New("caller is not the certificate issuer")
	ErrAlreadyRevoked = errors.New("certificate already revoked")
)

// Validator validates certificate operations against policy
type Validator struct{}

// NewValidator creates a new policy validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateIssueRequest checks that both source references are present
func (v *Validator) ValidateIssueRequest(lotID, expertiseID string) error {
	if strings.TrimSpace(lotID) == "" || strings.TrimSpace(expertiseID) == "" {
		return fmt.Errorf("lot_id and expertise_id required: %w", ErrMissingField)
	}
	return nil
}

// ValidateRevokeReason checks the revocation reason and returns it trimmed
func (v *Validator) ValidateRevokeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", fmt.Errorf("revocation reason required: %w", ErrMissingField)
	}
	if len(reason) > maxReasonLength {
		return "", fmt.Errorf("revocation reason longer than %d bytes: %w", maxReasonLength, ErrMissingField)
	}
	return reason, nil
}

// ValidateRevoke checks that the caller may revoke the certificate.
// An already revoked certificate yields ErrAlreadyRevoked, never a transition back.
func (v *Validator) ValidateRevoke(cert *models.Certificate, callerID string) error {
	if cert.IssuerID != callerID {
		return ErrNotIssuer
	}
	if cert.IsRevoked() {
		return ErrAlreadyRevoked
	}
	return nil
}
