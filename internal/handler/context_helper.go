package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/middleware"
	"github.com/profsight/profsight-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims. It is nil
// on routes reached without the JWT middleware; services treat a nil
// actor as unauthorized, so handlers may pass it through directly.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	if value, ok := c.Get(middleware.ContextUserKey); ok {
		if claims, ok := value.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}
