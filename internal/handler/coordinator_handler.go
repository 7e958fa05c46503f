package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/service"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
	"github.com/noah-isme/course-vacancy-api/pkg/response"
)

// CoordinatorHandler exposes coordinator registration and validation rounds.
type CoordinatorHandler struct {
	coordinators *service.CoordinatorService
}

// NewCoordinatorHandler constructs CoordinatorHandler.
func NewCoordinatorHandler(coordinators *service.CoordinatorService) *CoordinatorHandler {
	return &CoordinatorHandler{coordinators: coordinators}
}

// Register godoc
// @Summary Register a teacher as course coordinator
// @Tags Coordinators
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.RequestValidationRequest true "Coordinator email"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/coordinators [post]
func (h *CoordinatorHandler) Register(c *gin.Context) {
	courseID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RequestValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	coordinator, err := h.coordinators.Register(c.Request.Context(), courseID, req.CoordinatorEmail)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coordinator)
}

// RequestValidation godoc
// @Summary Open a validation round for a course coordinator
// @Tags Coordinators
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.RequestValidationRequest true "Coordinator email"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/validation-requests [post]
func (h *CoordinatorHandler) RequestValidation(c *gin.Context) {
	courseID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RequestValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	validation, err := h.coordinators.RequestValidation(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, validation)
}

// ListValidations godoc
// @Summary List a course's validation rounds
// @Tags Coordinators
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/validation-requests [get]
func (h *CoordinatorHandler) ListValidations(c *gin.Context) {
	courseID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	validations, err := h.coordinators.ListValidations(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, validations, nil)
}

// Decide godoc
// @Summary Record the coordinator decision on a validation round
// @Tags Coordinators
// @Accept json
// @Produce json
// @Param id path int true "Validation round ID"
// @Param payload body dto.DecideValidationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /validation-requests/{id}/decide [post]
func (h *CoordinatorHandler) Decide(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DecideValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	validation, err := h.coordinators.Decide(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, validation, nil)
}
