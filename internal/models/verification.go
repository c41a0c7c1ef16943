package models

import "time"

// VerificationResult is the outcome recorded for a public lookup
type VerificationResult string

const (
	ResultValid    VerificationResult = "valid"
	ResultRevoked  VerificationResult = "revoked"
	ResultNotFound VerificationResult = "not_found"
)

// VerificationRoute identifies which public endpoint produced a log entry
type VerificationRoute string

const (
	RouteVerify   VerificationRoute = "verify"
	RouteDownload VerificationRoute = "download"
)

// VerificationLog represents an append-only verification event.
// Requester IP and user agent are only stored as keyed hashes.
type VerificationLog struct {
	ID            int64              `json:"id"`
	CertificateID string             `json:"certificate_id"`
	Timestamp     time.Time          `json:"ts"`
	IPHMAC        string             `json:"ip_hmac"`
	UAHMAC        string             `json:"ua_hmac"`
	Result        VerificationResult `json:"result"`
	Route         VerificationRoute  `json:"route"`
}
