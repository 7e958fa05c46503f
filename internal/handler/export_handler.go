package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/service"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
	"github.com/noah-isme/course-vacancy-api/pkg/response"
)

// ExportHandler creates stored export artifacts and serves signed downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Generate a stored export and return a signed download token
// @Tags Exports
// @Accept json
// @Produce json
// @Param format query string false "Export format" Enums(csv, pdf)
// @Param course_id query int false "Course ID, required for pdf"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		var query dto.CourseListQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
			return
		}
		stored, err := h.exports.StoreCourseList(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, stored)
	case "pdf":
		courseID, err := queryInt64(c, "course_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		stored, err := h.exports.StoreAttributionSheet(c.Request.Context(), courseID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, stored)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// Download godoc
// @Summary Download a stored export via its signed token
// @Tags Exports
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing token"))
		return
	}
	file, name, err := h.exports.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		// Headers already written, nothing sensible left to report to the client.
		_ = c.Error(err)
	}
}

func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing %s", name))
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s", name))
	}
	return value, nil
}
