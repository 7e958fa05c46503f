package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

func newCoordinatorService(t *testing.T) (*CoordinatorService, *stubCoordinatorStore, *stubNotifier) {
	t.Helper()
	coordinators := newStubCoordinatorStore()
	notifier := &stubNotifier{}
	teachers := newStubTeacherStore(&models.Teacher{ID: 9, Email: "coord@example.org", FirstName: "Coord", LastName: "Inator"})
	svc := NewCoordinatorService(coordinators, newStubCourseStore(vacantCourse()), teachers, notifier, nil, nil)
	return svc, coordinators, notifier
}

func TestCoordinatorRegister(t *testing.T) {
	svc, coordinators, _ := newCoordinatorService(t)

	coordinator, err := svc.Register(context.Background(), 1, "coord@example.org")
	require.NoError(t, err)

	assert.Equal(t, int64(9), coordinator.TeacherID)
	assert.Equal(t, "coord@example.org", coordinator.Email)
	assert.Len(t, coordinators.coordinators[1], 1)
}

func TestCoordinatorRegisterUnknownTeacher(t *testing.T) {
	svc, _, _ := newCoordinatorService(t)

	_, err := svc.Register(context.Background(), 1, "ghost@example.org")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRequestValidationRequiresRegisteredCoordinator(t *testing.T) {
	svc, _, notifier := newCoordinatorService(t)

	_, err := svc.RequestValidation(context.Background(), 1, dto.RequestValidationRequest{CoordinatorEmail: "coord@example.org"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, notifier.validationRequested)
}

func TestRequestValidation(t *testing.T) {
	svc, _, notifier := newCoordinatorService(t)

	_, err := svc.Register(context.Background(), 1, "coord@example.org")
	require.NoError(t, err)

	validation, err := svc.RequestValidation(context.Background(), 1, dto.RequestValidationRequest{CoordinatorEmail: "coord@example.org"})
	require.NoError(t, err)

	assert.Equal(t, models.ValidationPending, validation.Status)
	assert.Equal(t, 1, notifier.validationRequested)
}

func TestDecideValidation(t *testing.T) {
	svc, coordinators, _ := newCoordinatorService(t)

	_, err := svc.Register(context.Background(), 1, "coord@example.org")
	require.NoError(t, err)
	validation, err := svc.RequestValidation(context.Background(), 1, dto.RequestValidationRequest{CoordinatorEmail: "coord@example.org"})
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), validation.ID, dto.DecideValidationRequest{Status: models.ValidationValidated, Comment: "all hours match"})
	require.NoError(t, err)

	assert.Equal(t, models.ValidationValidated, decided.Status)
	require.NotNil(t, decided.Comment)
	assert.Equal(t, "all hours match", *decided.Comment)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, []models.ValidationStatus{models.ValidationValidated}, coordinators.decided)
}

func TestDecideValidationIsTerminal(t *testing.T) {
	svc, _, _ := newCoordinatorService(t)

	_, err := svc.Register(context.Background(), 1, "coord@example.org")
	require.NoError(t, err)
	validation, err := svc.RequestValidation(context.Background(), 1, dto.RequestValidationRequest{CoordinatorEmail: "coord@example.org"})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), validation.ID, dto.DecideValidationRequest{Status: models.ValidationRejected})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), validation.ID, dto.DecideValidationRequest{Status: models.ValidationValidated})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyReviewed)
}

func TestDecideValidationRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newCoordinatorService(t)

	_, err := svc.Decide(context.Background(), 1, dto.DecideValidationRequest{Status: "maybe"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
