package middleware

import (
	"errors"
	"net/http"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"

	"github.com/adamscao/lotcert/internal/auth"
)

// IdentityHandler is a handler that runs on behalf of an authenticated issuer
type IdentityHandler func(c *gin.Context, caller auth.Identity)

// RequireIdentity authenticates the bearer token and hands the resolved
// identity to next. Missing or rejected tokens get 401.
func RequireIdentity(verifier auth.Verifier, logger lager.Logger, next IdentityHandler) gin.HandlerFunc {
	logger = logger.Session("auth")

	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Bearer token required",
			})
			return
		}

		caller, err := verifier.Verify(c.Request.Context(), token)
		if err != nil && !errors.Is(err, auth.ErrUnauthenticated) {
			logger.Error("verify-failed", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid or expired token",
			})
			return
		}

		next(c, caller)
	}
}
