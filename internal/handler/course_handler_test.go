package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type errorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *appErrors.Error {
	t.Helper()
	var envelope errorEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestCourseHandlerGetInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, rec).Code)
}

func TestCourseHandlerGetNegativeID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/-4", nil)
	c.Params = gin.Params{{Key: "id", Value: "-4"}}

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, rec).Code)
}

func TestCourseHandlerImportMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses/import", nil)

	handler.Import(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposalHandlerListInvalidCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProposalHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/proposals?course_id=abc", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, rec).Code)
}

func TestProposalHandlerSubmitInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProposalHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/proposals", strings.NewReader(`{"course_id": "seven"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
