package handlers

import (
	"errors"
	"net/http"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"

	"github.com/adamscao/lotcert/internal/certs"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// RespondError sends an error response
func RespondError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondServiceError maps a certificate service error onto its HTTP outcome.
// Unclassified errors are logged and answered with an opaque 500.
func RespondServiceError(c *gin.Context, logger lager.Logger, action string, err error) {
	var revoked *certs.RevokedError

	switch {
	case errors.As(err, &revoked):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "revoked", Reason: revoked.Reason})
	case errors.Is(err, certs.ErrValidation):
		RespondError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, certs.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", "")
	case errors.Is(err, certs.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", "Only the issuer may revoke this certificate")
	default:
		logger.Error(action, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// ClientInfo describes the requester for provenance and audit
func ClientInfo(c *gin.Context) certs.RequestInfo {
	return certs.RequestInfo{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
