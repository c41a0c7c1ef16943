package handlers

import (
	"context"

	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/certs"
	"github.com/adamscao/lotcert/internal/models"
)

// CertificateService is the workflow surface the HTTP handlers drive
type CertificateService interface {
	Issue(ctx context.Context, req certs.IssueRequest) (*certs.IssueResult, error)
	Revoke(ctx context.Context, certificateID string, caller auth.Identity, reason string) (*certs.RevokeResult, error)
	Verify(ctx context.Context, certificateID string, client certs.RequestInfo) (*certs.PublicView, error)
	Download(ctx context.Context, certificateID string, client certs.RequestInfo) (*certs.DownloadLink, error)
	ListForIssuer(ctx context.Context, caller auth.Identity, limit int) ([]*models.Certificate, error)
	ListForLot(ctx context.Context, lotID string, limit int) ([]*models.Certificate, error)
}
