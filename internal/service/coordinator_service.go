package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type coordinatorStore interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.CourseCoordinator, error)
	FindByCourseAndEmail(ctx context.Context, courseID int64, email string) (*models.CourseCoordinator, error)
	Add(ctx context.Context, coordinator *models.CourseCoordinator) error
	CreateValidation(ctx context.Context, validation *models.CoordinatorValidation) error
	ListValidationsByCourse(ctx context.Context, courseID int64) ([]models.CoordinatorValidation, error)
	GetValidation(ctx context.Context, id int64) (*models.CoordinatorValidation, error)
	Decide(ctx context.Context, id int64, status models.ValidationStatus, comment *string, decidedAt time.Time) error
}

type validationNotifier interface {
	ValidationRequested(coordinator *models.CourseCoordinator, course *models.Course)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// CoordinatorService manages coordinator registrations and attribution
// validation rounds. Only an email registered as coordinator of a course may
// open a validation round on it.
type CoordinatorService struct {
	coordinators coordinatorStore
	courses      courseReader
	teachers     teacherFinder
	notifier     validationNotifier
	validator    *validator.Validate
	logger       *zap.Logger
}

type teacherFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
}

// NewCoordinatorService constructs the service.
func NewCoordinatorService(
	coordinators coordinatorStore,
	courses courseReader,
	teachers teacherFinder,
	notifier validationNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *CoordinatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordinatorService{
		coordinators: coordinators,
		courses:      courses,
		teachers:     teachers,
		notifier:     notifier,
		validator:    validate,
		logger:       logger,
	}
}

// Register records a teacher as coordinator of a course, resolving the teacher
// by email.
func (s *CoordinatorService) Register(ctx context.Context, courseID int64, email string) (*models.CourseCoordinator, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	teacher, err := s.teachers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no teacher with email %s", email))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	coordinator := &models.CourseCoordinator{
		CourseID:  course.ID,
		TeacherID: teacher.ID,
		Email:     teacher.Email,
	}
	if err := s.coordinators.Add(ctx, coordinator); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register coordinator")
	}
	return coordinator, nil
}

// RequestValidation opens a pending validation round for a registered
// coordinator and notifies them by email.
func (s *CoordinatorService) RequestValidation(ctx context.Context, courseID int64, req dto.RequestValidationRequest) (*models.CoordinatorValidation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation request payload")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	coordinator, err := s.coordinators.FindByCourseAndEmail(ctx, courseID, req.CoordinatorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "email is not a coordinator of this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve coordinator")
	}

	validation := &models.CoordinatorValidation{
		CourseID:      course.ID,
		CoordinatorID: coordinator.ID,
	}
	if err := s.coordinators.CreateValidation(ctx, validation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open validation round")
	}
	if s.notifier != nil {
		s.notifier.ValidationRequested(coordinator, course)
	}
	return validation, nil
}

// ListValidations returns a course's validation rounds, newest first.
func (s *CoordinatorService) ListValidations(ctx context.Context, courseID int64) ([]models.CoordinatorValidation, error) {
	validations, err := s.coordinators.ListValidationsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list validations")
	}
	return validations, nil
}

// Decide records the coordinator's outcome on a pending validation round.
func (s *CoordinatorService) Decide(ctx context.Context, validationID int64, req dto.DecideValidationRequest) (*models.CoordinatorValidation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	switch req.Status {
	case models.ValidationValidated, models.ValidationNeedsCorrection, models.ValidationRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported validation status: %s", req.Status))
	}

	validation, err := s.coordinators.GetValidation(ctx, validationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "validation round not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validation round")
	}
	if validation.Status != models.ValidationPending {
		return nil, appErrors.ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	comment := optionalNotes(req.Comment)
	if err := s.coordinators.Decide(ctx, validation.ID, req.Status, comment, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyReviewed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	validation.Status = req.Status
	validation.Comment = comment
	validation.DecidedAt = &now
	return validation, nil
}
