package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type modificationStore interface {
	Create(ctx context.Context, req *models.ModificationRequest) error
	GetByID(ctx context.Context, id int64) (*models.ModificationRequest, error)
	List(ctx context.Context, filter models.ModificationFilter) ([]models.ModificationRequest, error)
	Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error
}

type modificationNotifier interface {
	ModificationSubmitted(req *models.ModificationRequest, course *models.Course)
	ModificationReviewed(req *models.ModificationRequest, course *models.Course)
}

// ModificationService runs the course modification request workflow. The
// request itself is free text; approving it acknowledges the ask. Only the
// assignment category touches the course: its approval marks the course as
// staffed. Everything else is applied through the course endpoints.
type ModificationService struct {
	requests  modificationStore
	courses   courseTxStore
	audit     auditLogger
	notifier  modificationNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModificationService constructs the service.
func NewModificationService(
	requests modificationStore,
	courses courseTxStore,
	audit auditLogger,
	notifier modificationNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *ModificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModificationService{
		requests:  requests,
		courses:   courses,
		audit:     audit,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// Submit records a new pending modification request.
func (s *ModificationService) Submit(ctx context.Context, req dto.SubmitModificationRequest) (*models.ModificationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid modification payload")
	}
	if !models.ValidModificationType(req.ModificationType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported modification type: %s", req.ModificationType))
	}
	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	request := &models.ModificationRequest{
		CourseID:         course.ID,
		RequesterName:    req.RequesterName,
		RequesterEmail:   strings.ToLower(strings.TrimSpace(req.RequesterEmail)),
		ModificationType: req.ModificationType,
		Description:      req.Description,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create modification request")
	}

	s.emitAudit(ctx, nil, models.AuditActionModificationSubmit, request, course)
	if s.notifier != nil {
		s.notifier.ModificationSubmitted(request, course)
	}
	return request, nil
}

// List returns modification requests matching the filter.
func (s *ModificationService) List(ctx context.Context, filter models.ModificationFilter) ([]models.ModificationRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modification requests")
	}
	return requests, nil
}

// Get returns one modification request.
func (s *ModificationService) Get(ctx context.Context, id int64) (*models.ModificationRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "modification request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load modification request")
	}
	return request, nil
}

// Approve moves a pending request to the approved terminal state.
func (s *ModificationService) Approve(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.ModificationRequest, error) {
	return s.review(ctx, id, models.ReviewStatusApproved, req, actor)
}

// Reject moves a pending request to the rejected terminal state.
func (s *ModificationService) Reject(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.ModificationRequest, error) {
	return s.review(ctx, id, models.ReviewStatusRejected, req, actor)
}

func (s *ModificationService) review(ctx context.Context, id int64, status models.ReviewStatus, req dto.ReviewRequest, actor *models.JWTClaims) (*models.ModificationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.ReviewStatusPending {
		return nil, appErrors.ErrAlreadyReviewed
	}
	course, err := s.loadCourse(ctx, request.CourseID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	notes := optionalNotes(req.AdminNotes)
	err = s.courses.Transact(ctx, func(tx *sqlx.Tx) error {
		if err := s.requests.Review(ctx, tx, request.ID, status, notes, actor.Email, now); err != nil {
			return err
		}
		if status != models.ReviewStatusApproved || request.ModificationType != models.ModificationTypeAssignment {
			return nil
		}
		// An approved assignment request means the course got staffed.
		if err := s.courses.SetVacant(ctx, tx, course.ID, false, course.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrVersionConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrVersionConflict) {
			return nil, appErrors.ErrVersionConflict
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyReviewed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review modification request")
	}

	request.Status = status
	request.AdminNotes = notes
	request.ReviewedAt = &now
	request.ReviewedBy = &actor.Email
	s.emitAudit(ctx, &actor.UserID, models.AuditActionModificationReview, request, course)
	if s.notifier != nil {
		s.notifier.ModificationReviewed(request, course)
	}
	return request, nil
}

func (s *ModificationService) loadCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *ModificationService) emitAudit(ctx context.Context, userID *string, action string, request *models.ModificationRequest, course *models.Course) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(request)
	if err != nil {
		payload = nil
	}
	resourceID := course.Code
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "modification_request",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
