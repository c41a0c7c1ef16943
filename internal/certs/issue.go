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
	"github.com/adamscao/lotcert/pkg/certhash"
)

// CertificateVersion is the version stamped on every issued certificate
const CertificateVersion = 1

// IssueRequest asks for a certificate over a lot/expertise pair
type IssueRequest struct {
	LotID       string
	ExpertiseID string
	Caller      auth.Identity
	Client      RequestInfo
}

// IssueResult is returned to the issuer after a successful issuance
type IssueResult struct {
	CertificateID     string    `json:"certificate_id"`
	PublicFingerprint string    `json:"public_fingerprint"`
	VerifyURL         string    `json:"verify_url"`
	QRCodeData        string    `json:"qr_code_data"`
	IssuedAt          time.Time `json:"issued_at"`
}

// Issue renders, fingerprints, stores and records a new certificate.
//
// The fingerprint is printed inside the document but derived from the
// document's hash, so it comes from a first render with an empty fingerprint;
// the second render embeds it and its hash is what gets persisted. The record
// is written last: a failure leaves at most an orphaned blob, never a record
// pointing at a missing one.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	logger := s.logger.Session("issue", lager.Data{"lot_id": req.LotID, "issuer_id": req.Caller.IssuerID})

	if err := s.validator.ValidateIssueRequest(req.LotID, req.ExpertiseID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	started := time.Now()

	lot, err := s.sources.GetLot(ctx, req.LotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lot %s: %w", req.LotID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lot: %w", err)
	}

	exp, err := s.sources.GetExpertise(ctx, req.ExpertiseID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("expertise-missing", lager.Data{"expertise_id": req.ExpertiseID})
		exp = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load expertise: %w", err)
	}

	certificateID, err := certhash.NewCertificateID()
	if err != nil {
		return nil, err
	}

	issuedAt := s.now().Truncate(time.Millisecond)
	verifyURL := s.VerifyURL(certificateID)
	payload := buildPayload(certificateID, lot, exp, s.settings.Laboratory, issuedAt, verifyURL)

	// Pass 1: no fingerprint yet.
	draft, err := s.renderer.Render(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to render draft: %w", err)
	}
	fingerprint := certhash.PublicFingerprint(certhash.ContentHash(draft))

	// Pass 2: fingerprint embedded; this is the stored document.
	payload.PublicFingerprint = fingerprint
	final, err := s.renderer.Render(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	contentHash := certhash.ContentHash(final)

	key := s.blobs.KeyFor(certificateID)
	if err := s.blobs.Put(ctx, key, final); err != nil {
		return nil, fmt.Errorf("failed to store certificate pdf: %w", err)
	}

	cert := &models.Certificate{
		CertificateID:     certificateID,
		SchemaVersion:     models.CertificateSchemaVersion,
		PublicFingerprint: fingerprint,
		Version:           CertificateVersion,
		Status:            models.StatusValid,
		IssuedAt:          issuedAt,
		LotID:             req.LotID,
		IssuerID:          req.Caller.IssuerID,
		ExpertiseID:       req.ExpertiseID,
		DataPublic:        publicData(payload, exp),
		PDF: models.PDFObject{
			Key:         key,
			ContentHash: contentHash,
			Size:        int64(len(final)),
		},
		Metadata: &models.IssuanceMetadata{
			IPAddress:            req.Client.IP,
			UserAgent:            req.Client.UserAgent,
			GenerationDurationMs: time.Since(started).Milliseconds(),
		},
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		logger.Error("orphaned-blob", err, lager.Data{"key": key})
		return nil, fmt.Errorf("failed to record certificate: %w", err)
	}

	logger.Info("issued", lager.Data{
		"certificate_id": certificateID,
		"fingerprint":    fingerprint,
		"size":           len(final),
	})

	return &IssueResult{
		CertificateID:     certificateID,
		PublicFingerprint: fingerprint,
		VerifyURL:         verifyURL,
		QRCodeData:        verifyURL,
		IssuedAt:          issuedAt,
	}, nil
}
