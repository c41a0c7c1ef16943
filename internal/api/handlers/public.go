package handlers

import (
	"net/http"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated verification routes
type PublicHandler struct {
	svc    CertificateService
	logger lager.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(svc CertificateService, logger lager.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, logger: logger.Session("public")}
}

// Verify returns the public view of a certificate
// GET /api/public/certificates/:id
func (h *PublicHandler) Verify(c *gin.Context) {
	view, err := h.svc.Verify(c.Request.Context(), c.Param("id"), ClientInfo(c))
	if err != nil {
		RespondServiceError(c, h.logger, "verify-failed", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Download returns a short-lived link to the certificate PDF
// POST /api/public/certificates/:id/download
func (h *PublicHandler) Download(c *gin.Context) {
	link, err := h.svc.Download(c.Request.Context(), c.Param("id"), ClientInfo(c))
	if err != nil {
		RespondServiceError(c, h.logger, "download-failed", err)
		return
	}

	c.JSON(http.StatusOK, link)
}
