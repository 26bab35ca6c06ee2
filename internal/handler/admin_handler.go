package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/models"
	"github.com/profsight/profsight-api/internal/service"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
	"github.com/profsight/profsight-api/pkg/response"
)

// AdminHandler exposes the admin claim queue and moderation endpoints.
type AdminHandler struct {
	claims     *service.ClaimService
	moderation *service.ModerationService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(claims *service.ClaimService, moderation *service.ModerationService) *AdminHandler {
	return &AdminHandler{claims: claims, moderation: moderation}
}

// ListClaims godoc
// @Summary Pending claim requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/claims [get]
func (h *AdminHandler) ListClaims(c *gin.Context) {
	pending, err := h.claims.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// ApproveClaim godoc
// @Summary Approve a claim request
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/claims/{id}/approve [post]
func (h *AdminHandler) ApproveClaim(c *gin.Context) {
	claim, err := h.claims.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}

// RejectClaim godoc
// @Summary Reject a claim request
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Param payload body models.ClaimRejectRequest false "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/claims/{id}/reject [post]
func (h *AdminHandler) RejectClaim(c *gin.Context) {
	var req models.ClaimRejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	claim, err := h.claims.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}

// FlaggedReviews godoc
// @Summary Flagged review queue
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/flagged-reviews [get]
func (h *AdminHandler) FlaggedReviews(c *gin.Context) {
	flagged, err := h.moderation.ListFlagged(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flagged, nil)
}

// DeleteReview godoc
// @Summary Delete a review (moderation)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/reviews/{id} [delete]
func (h *AdminHandler) DeleteReview(c *gin.Context) {
	if err := h.moderation.DeleteReview(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DismissFlags godoc
// @Summary Dismiss all flags on a review
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reviews/{id}/dismiss-flags [post]
func (h *AdminHandler) DismissFlags(c *gin.Context) {
	if err := h.moderation.DismissFlags(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"dismissed": true}, nil)
}

// ExportFlagged godoc
// @Summary Export the flagged queue
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /admin/flagged-reviews/export [get]
func (h *AdminHandler) ExportFlagged(c *gin.Context) {
	result, err := h.moderation.Export(c.Request.Context(), claimsFromContext(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DownloadExport godoc
// @Summary Download a previously exported report
// @Tags Admin
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /admin/flagged-reviews/export/download [get]
func (h *AdminHandler) DownloadExport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.moderation.OpenExport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}
