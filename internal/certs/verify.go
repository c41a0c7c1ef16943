package certs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/pkg/certhash"
)

const unknownClient = "unknown"

// PublicView is what anyone may learn about a certificate
type PublicView struct {
	CertificateID     string            `json:"certificate_id"`
	Status            models.Status     `json:"status"`
	IssuedAt          time.Time         `json:"issued_at"`
	RevokedReason     *string           `json:"revoked_reason"`
	RevokedAt         *time.Time        `json:"revoked_at"`
	PublicFingerprint string            `json:"public_fingerprint"`
	DataPublic        models.PublicData `json:"data_public"`
	VerifiedAt        time.Time         `json:"verified_at"`
}

// DownloadLink is a short-lived capability to fetch the certificate PDF
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresIn int       `json:"expires_in"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"-"`
}

// Verify looks up a certificate for the public. Every lookup is logged; a found
// certificate has its verification counter bumped whatever its status.
func (s *Service) Verify(ctx context.Context, certificateID string, client RequestInfo) (*PublicView, error) {
	logger := s.logger.Session("verify", lager.Data{"certificate_id": certificateID})

	cert, err := s.get(ctx, certificateID)
	if errors.Is(err, ErrNotFound) {
		if err := s.logEvent(ctx, certificateID, models.ResultNotFound, models.RouteVerify, client); err != nil {
			return nil, err
		}
		logger.Debug("not-found")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.certs.IncrementVerificationCount(ctx, certificateID, now); err != nil {
		return nil, err
	}
	if err := s.logEvent(ctx, certificateID, resultFor(cert), models.RouteVerify, client); err != nil {
		return nil, err
	}

	view := &PublicView{
		CertificateID:     cert.CertificateID,
		Status:            cert.Status,
		IssuedAt:          cert.IssuedAt,
		RevokedAt:         cert.RevokedAt,
		PublicFingerprint: cert.PublicFingerprint,
		DataPublic:        cert.DataPublic,
		VerifiedAt:        now,
	}
	if cert.RevokedReason != "" {
		reason := cert.RevokedReason
		view.RevokedReason = &reason
	}

	return view, nil
}

// Download mints a signed link to a valid certificate's PDF. Status is read
// again here; a previous verification is not trusted.
func (s *Service) Download(ctx context.Context, certificateID string, client RequestInfo) (*DownloadLink, error) {
	logger := s.logger.Session("download", lager.Data{"certificate_id": certificateID})

	cert, err := s.get(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	if cert.Status != models.StatusValid {
		if err := s.logEvent(ctx, certificateID, models.ResultRevoked, models.RouteDownload, client); err != nil {
			return nil, err
		}
		reason := cert.RevokedReason
		if reason == "" {
			reason = DefaultRevokedReason
		}
		logger.Info("denied-revoked")
		return nil, &RevokedError{Reason: reason}
	}

	if err := s.logEvent(ctx, certificateID, models.ResultValid, models.RouteDownload, client); err != nil {
		return nil, err
	}

	filename := DownloadFilename(cert.PublicFingerprint)
	url, err := s.blobs.SignedURL(cert.PDF.Key, filename, s.settings.DownloadTTL)
	if err != nil {
		return nil, err
	}

	return &DownloadLink{
		URL:       url,
		ExpiresIn: int(s.settings.DownloadTTL / time.Second),
		Filename:  filename,
		ExpiresAt: s.now().Add(s.settings.DownloadTTL),
	}, nil
}

// DownloadFilename is the attachment name offered for a certificate PDF
func DownloadFilename(fingerprint string) string {
	if fingerprint == "" {
		return "certificate.pdf"
	}
	return "certificate-" + fingerprint + ".pdf"
}

func (s *Service) logEvent(ctx context.Context, certificateID string, result models.VerificationResult, route models.VerificationRoute, client RequestInfo) error {
	ip, ua := client.IP, client.UserAgent
	if ip == "" {
		ip = unknownClient
	}
	if ua == "" {
		ua = unknownClient
	}

	err := s.logs.Append(ctx, &models.VerificationLog{
		CertificateID: certificateID,
		Timestamp:     s.now(),
		IPHMAC:        certhash.PrivacyHash(ip, s.settings.Pepper),
		UAHMAC:        certhash.PrivacyHash(ua, s.settings.Pepper),
		Result:        result,
		Route:         route,
	})
	if err != nil {
		return fmt.Errorf("failed to log verification: %w", err)
	}
	return nil
}

func resultFor(cert *models.Certificate) models.VerificationResult {
	if cert.IsRevoked() {
		return models.ResultRevoked
	}
	return models.ResultValid
}
