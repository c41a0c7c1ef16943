package certs

import (
	"errors"
	"fmt"
)

// Outcomes of certificate operations. Anything else is an internal failure.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// DefaultRevokedReason is reported when a revoked record carries no reason
const DefaultRevokedReason = "Certificate has been revoked"

// RevokedError denies a download of a certificate that is no longer valid
type RevokedError struct {
	Reason string
}

func (e *RevokedError) Error() string {
	return fmt.Sprintf("certificate revoked: %s", e.Reason)
}
