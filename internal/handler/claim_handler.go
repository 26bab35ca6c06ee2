package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/service"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
	"github.com/profsight/profsight-api/pkg/response"
)

// ClaimHandler exposes the caller-facing side of the claim workflow.
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler constructs ClaimHandler.
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// MyStatus godoc
// @Summary Caller's claim status
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /claims/me [get]
func (h *ClaimHandler) MyStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.claims.MyStatus(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// MyProfile godoc
// @Summary Caller's claimed professor profile
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /claims/my-profile [get]
func (h *ClaimHandler) MyProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	professor, err := h.claims.MyProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// Cancel godoc
// @Summary Cancel a pending claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /claims/{id}/cancel [post]
func (h *ClaimHandler) Cancel(c *gin.Context) {
	claim, err := h.claims.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}
