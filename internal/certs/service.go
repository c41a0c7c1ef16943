// Package certs implements issuance, revocation, verification and download of
// authenticity certificates.
package certs

import (
	"context"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/internal/policy"
	"github.com/adamscao/lotcert/internal/render"
)

// CertificateStore is the durable certificate record store
type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	Revoke(ctx context.Context, id, reason string, at time.Time) (bool, error)
	IncrementVerificationCount(ctx context.Context, id string, at time.Time) error
	ListByLot(ctx context.Context, lotID string, limit int) ([]*models.Certificate, error)
	ListByIssuer(ctx context.Context, issuerID string, limit int) ([]*models.Certificate, error)
}

// VerificationLogStore is the append-only audit log of public requests
type VerificationLogStore interface {
	Append(ctx context.Context, entry *models.VerificationLog) error
}

// SourceStore reads the externally owned lot and expertise records
type SourceStore interface {
	GetLot(ctx context.Context, id string) (*models.Lot, error)
	GetExpertise(ctx context.Context, id string) (*models.Expertise, error)
}

// BlobStore persists rendered documents and mints download links
type BlobStore interface {
	KeyFor(certificateID string) string
	Put(ctx context.Context, key string, body []byte) error
	SignedURL(key, filename string, ttl time.Duration) (string, error)
}

// Renderer draws a certificate payload into PDF bytes
type Renderer interface {
	Render(p render.Payload) ([]byte, error)
}

// Settings are the fixed parameters of the workflows
type Settings struct {
	VerifyBaseURL string
	Laboratory    string
	Pepper        string
	DownloadTTL   time.Duration
}

// DefaultDownloadTTL is the lifetime of a signed download link
const DefaultDownloadTTL = 120 * time.Second

// RequestInfo describes the client of a request, for provenance and audit
type RequestInfo struct {
	IP        string
	UserAgent string
}

// Service orchestrates the certificate workflows over injected collaborators
type Service struct {
	certs     CertificateStore
	logs      VerificationLogStore
	sources   SourceStore
	blobs     BlobStore
	renderer  Renderer
	validator *policy.Validator
	settings  Settings
	logger    lager.Logger
	now       func() time.Time
}

// NewService creates the certificate service
func NewService(
	certs CertificateStore,
	logs VerificationLogStore,
	sources SourceStore,
	blobs BlobStore,
	renderer Renderer,
	validator *policy.Validator,
	settings Settings,
	logger lager.Logger,
) *Service {
	if settings.DownloadTTL <= 0 {
		settings.DownloadTTL = DefaultDownloadTTL
	}
	settings.VerifyBaseURL = strings.TrimRight(settings.VerifyBaseURL, "/")

	return &Service{
		certs:     certs,
		logs:      logs,
		sources:   sources,
		blobs:     blobs,
		renderer:  renderer,
		validator: validator,
		settings:  settings,
		logger:    logger.Session("certs"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// VerifyURL returns the public verification URL of a certificate
func (s *Service) VerifyURL(certificateID string) string {
	return s.settings.VerifyBaseURL + "/" + certificateID
}
