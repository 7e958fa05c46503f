package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	"github.com/noah-isme/course-vacancy-api/internal/service"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
	"github.com/noah-isme/course-vacancy-api/pkg/response"
)

// ModificationHandler exposes the modification request workflow.
type ModificationHandler struct {
	requests *service.ModificationService
	metrics  *service.MetricsService
}

// NewModificationHandler constructs ModificationHandler.
func NewModificationHandler(requests *service.ModificationService, metrics *service.MetricsService) *ModificationHandler {
	return &ModificationHandler{requests: requests, metrics: metrics}
}

// Submit godoc
// @Summary Submit a course modification request
// @Tags Modifications
// @Accept json
// @Produce json
// @Param payload body dto.SubmitModificationRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /modification-requests [post]
func (h *ModificationHandler) Submit(c *gin.Context) {
	var req dto.SubmitModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List modification requests
// @Tags Modifications
// @Produce json
// @Param course_id query int false "Filter by course"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Param type query string false "Filter by modification type"
// @Success 200 {object} response.Envelope
// @Router /modification-requests [get]
func (h *ModificationHandler) List(c *gin.Context) {
	filter := models.ModificationFilter{
		Status: models.ReviewStatus(c.Query("status")),
		Type:   models.ModificationType(c.Query("type")),
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course_id"))
			return
		}
		filter.CourseID = id
	}
	requests, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get one modification request
// @Tags Modifications
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /modification-requests/{id} [get]
func (h *ModificationHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve a pending modification request
// @Tags Modifications
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.ReviewRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Router /modification-requests/{id}/approve [post]
func (h *ModificationHandler) Approve(c *gin.Context) {
	h.review(c, h.requests.Approve, "approved")
}

// Reject godoc
// @Summary Reject a pending modification request
// @Tags Modifications
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.ReviewRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Router /modification-requests/{id}/reject [post]
func (h *ModificationHandler) Reject(c *gin.Context) {
	h.review(c, h.requests.Reject, "rejected")
}

func (h *ModificationHandler) review(
	c *gin.Context,
	decide func(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.ModificationRequest, error),
	outcome string,
) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	request, err := decide(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordWorkflowDecision("modification", outcome)
	response.JSON(c, http.StatusOK, request, nil)
}
