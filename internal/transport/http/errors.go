package http

import (
	"net/http"

	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
)

// handleError is the only place domain errors become HTTP statuses.
// Credential and token failures deliberately share terse generic bodies:
// the response must not reveal whether the identifier existed or which
// token check failed.
func handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.IsWeakPassword(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password does not meet the strength policy"})
	case customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier already registered"})
	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case customErrors.IsTokenError(err), customErrors.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case customErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case customErrors.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
