package handlers

import (
	"net/http"
	"strconv"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"

	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/certs"
	"github.com/adamscao/lotcert/internal/models"
)

// AdminHandler serves the issuer routes. Every method receives the
// authenticated caller from middleware.RequireIdentity.
type AdminHandler struct {
	svc    CertificateService
	logger lager.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc CertificateService, logger lager.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger.Session("admin")}
}

// IssueRequest represents a certificate issue request
type IssueRequest struct {
	LotID       string `json:"lot_id"`
	ExpertiseID string `json:"expertise_id"`
}

// RevokeRequest represents a certificate revocation request
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// RevokeResponse represents a certificate revocation response
type RevokeResponse struct {
	Success       bool      `json:"success"`
	CertificateID string    `json:"certificate_id"`
	RevokedAt     time.Time `json:"revoked_at"`
}

// ListResponse represents a certificate listing
type ListResponse struct {
	Certificates []*models.Certificate `json:"certificates"`
	Count        int                   `json:"count"`
}

// IssueCertificate issues a certificate for a lot/expertise pair
// POST /api/admin/certificates
func (h *AdminHandler) IssueCertificate(c *gin.Context, caller auth.Identity) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	res, err := h.svc.Issue(c.Request.Context(), certs.IssueRequest{
		LotID:       req.LotID,
		ExpertiseID: req.ExpertiseID,
		Caller:      caller,
		Client:      ClientInfo(c),
	})
	if err != nil {
		RespondServiceError(c, h.logger, "issue-failed", err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// RevokeCertificate revokes a certificate issued by the caller
// POST /api/admin/certificates/:id/revoke
func (h *AdminHandler) RevokeCertificate(c *gin.Context, caller auth.Identity) {
	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Revocation reason required")
		return
	}

	res, err := h.svc.Revoke(c.Request.Context(), c.Param("id"), caller, req.Reason)
	if err != nil {
		RespondServiceError(c, h.logger, "revoke-failed", err)
		return
	}

	c.JSON(http.StatusOK, RevokeResponse{
		Success:       true,
		CertificateID: res.CertificateID,
		RevokedAt:     res.RevokedAt,
	})
}

// ListCertificates lists the caller's certificates, or those of ?lot_id=
// GET /api/admin/certificates
func (h *AdminHandler) ListCertificates(c *gin.Context, caller auth.Identity) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		list []*models.Certificate
		err  error
	)
	if lotID := c.Query("lot_id"); lotID != "" {
		list, err = h.svc.ListForLot(c.Request.Context(), lotID, limit)
	} else {
		list, err = h.svc.ListForIssuer(c.Request.Context(), caller, limit)
	}
	if err != nil {
		RespondServiceError(c, h.logger, "list-failed", err)
		return
	}

	if list == nil {
		list = []*models.Certificate{}
	}
	c.JSON(http.StatusOK, ListResponse{Certificates: list, Count: len(list)})
}
