// Package certhash holds the integrity and fingerprint primitives of a certificate.
package certhash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FingerprintLength is the number of hex characters kept from a content hash
const FingerprintLength = 8

const pepperLength = 32

// ContentHash returns the hex SHA-256 digest of a buffer
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// PublicFingerprint returns the first 8 hex characters of a content hash, upper-cased
func PublicFingerprint(hash string) string {
	if len(hash) > FingerprintLength {
		hash = hash[:FingerprintLength]
	}
	return strings.ToUpper(hash)
}

// PrivacyHash returns the hex HMAC-SHA256 of data keyed with pepper.
// Used so requester IPs and user agents are never stored in reversible form.
func PrivacyHash(data, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewCertificateID returns a time-ordered unique identifier (UUIDv7).
// The timestamp prefix makes IDs sort chronologically as strings.
func NewCertificateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate certificate id: %w", err)
	}
	return id.String(), nil
}

// GeneratePepper returns a random 32-byte pepper encoded as hex
func GeneratePepper() (string, error) {
	b := make([]byte, pepperLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate pepper: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsFingerprint reports whether s has the shape of a public fingerprint
func IsFingerprint(s string) bool {
	if len(s) != FingerprintLength {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
