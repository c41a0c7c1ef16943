package models

import "time"

// CertificateSchemaVersion is the record shape written by this binary.
// Optional fields added later must be pointers or omitempty so older records decode unchanged.
const CertificateSchemaVersion = 1

// Status is the lifecycle state of a certificate
type Status string

const (
	StatusValid   Status = "valid"
	StatusRevoked Status = "revoked"
)

// Certificate represents an issued authenticity certificate
type Certificate struct {
	CertificateID     string            `json:"certificate_id"`
	SchemaVersion     int               `json:"schema_version"`
	PublicFingerprint string            `json:"public_fingerprint"`
	Version           int               `json:"version"`
	Status            Status            `json:"status"`
	IssuedAt          time.Time         `json:"issued_at"`
	RevokedAt         *time.Time        `json:"revoked_at,omitempty"`
	RevokedReason     string            `json:"revoked_reason,omitempty"`
	LotID             string            `json:"lot_id"`
	IssuerID          string            `json:"issuer_id"`
	ExpertiseID       string            `json:"expertise_id,omitempty"`
	DataPublic        PublicData        `json:"data_public"`
	PDF               PDFObject         `json:"pdf"`
	VerificationCount int64             `json:"verification_count"`
	LastVerifiedAt    *time.Time        `json:"last_verified_at,omitempty"`
	Metadata          *IssuanceMetadata `json:"metadata,omitempty"`
}

// PublicData is the descriptive snapshot frozen at issuance time
type PublicData struct {
	Title          string   `json:"title"`
	Typology       string   `json:"typology"`
	Period         string   `json:"period"`
	Materials      string   `json:"materials"`
	Dimensions     string   `json:"dimensions,omitempty"`
	Score          float64  `json:"score"`
	Classification string   `json:"classification"`
	Laboratory     string   `json:"laboratory"`
	TestsPerformed []string `json:"tests_performed,omitempty"`
}

// PDFObject points at the stored document blob
type PDFObject struct {
	Key         string `json:"key"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
}

// IssuanceMetadata is best-effort provenance of the issuance request
type IssuanceMetadata struct {
	IPAddress            string `json:"ip_address,omitempty"`
	UserAgent            string `json:"user_agent,omitempty"`
	GenerationDurationMs int64  `json:"generation_duration_ms"`
}

// IsRevoked reports whether the certificate has been revoked
func (c *Certificate) IsRevoked() bool {
	return c.Status == StatusRevoked
}
