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

// ProposalHandler exposes the teaching-team proposal workflow.
type ProposalHandler struct {
	proposals *service.ProposalService
	metrics   *service.MetricsService
}

// NewProposalHandler constructs ProposalHandler.
func NewProposalHandler(proposals *service.ProposalService, metrics *service.MetricsService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, metrics: metrics}
}

// Submit godoc
// @Summary Submit a teaching-team proposal for a vacant course
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body dto.SubmitProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Submit(c *gin.Context) {
	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	proposal, err := h.proposals.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// List godoc
// @Summary List proposals
// @Tags Proposals
// @Produce json
// @Param course_id query int false "Filter by course"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	filter := models.ProposalFilter{
		Status: models.ReviewStatus(c.Query("status")),
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course_id"))
			return
		}
		filter.CourseID = id
	}
	proposals, err := h.proposals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// Get godoc
// @Summary Get one proposal
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Approve godoc
// @Summary Approve a pending proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body dto.ReviewRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/approve [post]
func (h *ProposalHandler) Approve(c *gin.Context) {
	h.review(c, h.proposals.Approve, "approved")
}

// Reject godoc
// @Summary Reject a pending proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body dto.ReviewRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/reject [post]
func (h *ProposalHandler) Reject(c *gin.Context) {
	h.review(c, h.proposals.Reject, "rejected")
}

func (h *ProposalHandler) review(
	c *gin.Context,
	decide func(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.AssignmentProposal, error),
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
	proposal, err := decide(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordWorkflowDecision("proposal", outcome)
	response.JSON(c, http.StatusOK, proposal, nil)
}
