package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/models"
	"github.com/profsight/profsight-api/internal/service"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
	"github.com/profsight/profsight-api/pkg/response"
)

// ProfessorHandler exposes professor directory endpoints.
type ProfessorHandler struct {
	professors *service.ProfessorService
	claims     *service.ClaimService
}

// NewProfessorHandler constructs ProfessorHandler.
func NewProfessorHandler(professors *service.ProfessorService, claims *service.ClaimService) *ProfessorHandler {
	return &ProfessorHandler{professors: professors, claims: claims}
}

// List godoc
// @Summary List professors
// @Tags Professors
// @Produce json
// @Param search query string false "Search by name"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *ProfessorHandler) List(c *gin.Context) {
	var filter models.ProfessorFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = strings.TrimSpace(c.Query("department"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	professors, pagination, err := h.professors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, pagination)
}

// Get godoc
// @Summary Get professor profile
// @Tags Professors
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professors/{id} [get]
func (h *ProfessorHandler) Get(c *gin.Context) {
	professor, err := h.professors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// Create godoc
// @Summary Create professor profile
// @Tags Professors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ProfessorCreateRequest true "Professor payload"
// @Success 201 {object} response.Envelope
// @Router /professors [post]
func (h *ProfessorHandler) Create(c *gin.Context) {
	var req models.ProfessorCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professor, err := h.professors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professor)
}

// Update godoc
// @Summary Update professor profile
// @Tags Professors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Professor ID"
// @Param payload body models.ProfessorUpdateRequest true "Professor payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /professors/{id} [put]
func (h *ProfessorHandler) Update(c *gin.Context) {
	var req models.ProfessorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professor, err := h.professors.Update(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// GradeDistribution godoc
// @Summary Grade distribution for a professor
// @Tags Professors
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professors/{id}/grade-distribution [get]
func (h *ProfessorHandler) GradeDistribution(c *gin.Context) {
	buckets, err := h.professors.GradeDistribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, nil)
}

// Follow godoc
// @Summary Follow a professor
// @Tags Professors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /professors/{id}/follow [post]
func (h *ProfessorHandler) Follow(c *gin.Context) {
	if err := h.professors.Follow(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"following": true}, nil)
}

// Unfollow godoc
// @Summary Unfollow a professor
// @Tags Professors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professors/{id}/follow [delete]
func (h *ProfessorHandler) Unfollow(c *gin.Context) {
	if err := h.professors.Unfollow(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"following": false}, nil)
}

// Following godoc
// @Summary Professors the caller follows
// @Tags Professors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /professors/following [get]
func (h *ProfessorHandler) Following(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	followed, err := h.professors.Following(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, followed, nil)
}

// IsFollowing godoc
// @Summary Whether the caller follows a professor
// @Tags Professors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professors/{id}/following [get]
func (h *ProfessorHandler) IsFollowing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	following, err := h.professors.IsFollowing(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"following": following}, nil)
}

// Claim godoc
// @Summary Claim a professor profile
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Professor ID"
// @Param payload body models.ClaimSubmitRequest false "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professors/{id}/claim [post]
func (h *ProfessorHandler) Claim(c *gin.Context) {
	var req models.ClaimSubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	req.ProfessorID = c.Param("id")

	claim, err := h.claims.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}
