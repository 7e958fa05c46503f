package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type proposalStore interface {
	Create(ctx context.Context, proposal *models.AssignmentProposal) error
	GetByID(ctx context.Context, id int64) (*models.AssignmentProposal, error)
	List(ctx context.Context, filter models.ProposalFilter) ([]models.AssignmentProposal, error)
	Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error
}

type courseTxStore interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	SetVacant(ctx context.Context, tx *sqlx.Tx, courseID int64, vacant bool, version int64) error
}

type assignmentReplacer interface {
	ReplaceForCourse(ctx context.Context, tx *sqlx.Tx, courseID int64, assignments []models.Assignment) error
}

type teacherUpserter interface {
	UpsertByEmail(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type proposalNotifier interface {
	ProposalSubmitted(proposal *models.AssignmentProposal, course *models.Course)
	ProposalReviewed(proposal *models.AssignmentProposal, course *models.Course)
}

// ProposalService runs the teaching-team proposal workflow. Approval swaps the
// course's attribution and clears the vacancy flag in the same transaction as
// the status change, so a crash can never leave a half-applied proposal.
type ProposalService struct {
	proposals   proposalStore
	courses     courseTxStore
	assignments assignmentReplacer
	teachers    teacherUpserter
	audit       auditLogger
	notifier    proposalNotifier
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProposalService constructs the service.
func NewProposalService(
	proposals proposalStore,
	courses courseTxStore,
	assignments assignmentReplacer,
	teachers teacherUpserter,
	audit auditLogger,
	notifier proposalNotifier,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{
		proposals:   proposals,
		courses:     courses,
		assignments: assignments,
		teachers:    teachers,
		audit:       audit,
		notifier:    notifier,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records a new pending proposal for a vacant course.
func (s *ProposalService) Submit(ctx context.Context, req dto.SubmitProposalRequest) (*models.AssignmentProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.Vacant {
		return nil, appErrors.ErrNotVacant
	}

	data := models.ProposalData{AdditionalNotes: req.AdditionalNotes}
	for _, a := range req.Assignments {
		data.Assignments = append(data.Assignments, models.ProposedAssignment{
			TeacherName:   a.TeacherName,
			TeacherEmail:  strings.ToLower(strings.TrimSpace(a.TeacherEmail)),
			IsCoordinator: a.IsCoordinator,
			Vol1Hours:     a.Vol1Hours,
			Vol2Hours:     a.Vol2Hours,
		})
		data.TotalVol1 += a.Vol1Hours
		data.TotalVol2 += a.Vol2Hours
	}

	proposal := &models.AssignmentProposal{
		CourseID:       course.ID,
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: strings.ToLower(strings.TrimSpace(req.SubmitterEmail)),
		ProposalData:   data,
	}
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}

	s.emitAudit(ctx, nil, models.AuditActionProposalSubmit, proposal, course)
	if s.notifier != nil {
		s.notifier.ProposalSubmitted(proposal, course)
	}
	return proposal, nil
}

// List returns proposals matching the filter.
func (s *ProposalService) List(ctx context.Context, filter models.ProposalFilter) ([]models.AssignmentProposal, error) {
	proposals, err := s.proposals.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	return proposals, nil
}

// Get returns one proposal.
func (s *ProposalService) Get(ctx context.Context, id int64) (*models.AssignmentProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return proposal, nil
}

// Approve applies a pending proposal: the proposed team replaces the course's
// attribution, the course stops being vacant, and the proposal turns terminal.
// All three writes share one transaction.
func (s *ProposalService) Approve(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.AssignmentProposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ReviewStatusPending {
		return nil, appErrors.ErrAlreadyReviewed
	}
	course, err := s.loadCourse(ctx, proposal.CourseID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	notes := optionalNotes(req.AdminNotes)
	err = s.courses.Transact(ctx, func(tx *sqlx.Tx) error {
		assignments := make([]models.Assignment, 0, len(proposal.ProposalData.Assignments))
		for _, proposed := range proposal.ProposalData.Assignments {
			teacher := &models.Teacher{
				Email:     proposed.TeacherEmail,
				FirstName: firstName(proposed.TeacherName),
				LastName:  lastName(proposed.TeacherName),
			}
			if err := s.teachers.UpsertByEmail(ctx, tx, teacher); err != nil {
				return err
			}
			teacherID := teacher.ID
			assignments = append(assignments, models.Assignment{
				CourseID:      course.ID,
				TeacherID:     &teacherID,
				Source:        models.SourceHourAttribution,
				Vol1Hours:     proposed.Vol1Hours,
				Vol2Hours:     proposed.Vol2Hours,
				IsCoordinator: proposed.IsCoordinator,
			})
		}
		if err := s.assignments.ReplaceForCourse(ctx, tx, course.ID, assignments); err != nil {
			return err
		}
		if err := s.courses.SetVacant(ctx, tx, course.ID, false, course.Version); err != nil {
			return err
		}
		return s.proposals.Review(ctx, tx, proposal.ID, models.ReviewStatusApproved, notes, actor.Email, now)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrVersionConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve proposal")
	}

	proposal.Status = models.ReviewStatusApproved
	proposal.AdminNotes = notes
	proposal.ValidatedAt = &now
	proposal.ValidatedBy = &actor.Email
	proposal.CourseStaffed = false
	s.finishReview(ctx, actor, proposal, course)
	s.invalidateDashboards(ctx)
	return proposal, nil
}

// Reject closes a pending proposal without touching the course.
func (s *ProposalService) Reject(ctx context.Context, id int64, req dto.ReviewRequest, actor *models.JWTClaims) (*models.AssignmentProposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ReviewStatusPending {
		return nil, appErrors.ErrAlreadyReviewed
	}
	course, err := s.loadCourse(ctx, proposal.CourseID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	notes := optionalNotes(req.AdminNotes)
	err = s.courses.Transact(ctx, func(tx *sqlx.Tx) error {
		return s.proposals.Review(ctx, tx, proposal.ID, models.ReviewStatusRejected, notes, actor.Email, now)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyReviewed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject proposal")
	}

	proposal.Status = models.ReviewStatusRejected
	proposal.AdminNotes = notes
	proposal.ValidatedAt = &now
	proposal.ValidatedBy = &actor.Email
	s.finishReview(ctx, actor, proposal, course)
	return proposal, nil
}

func (s *ProposalService) loadCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *ProposalService) finishReview(ctx context.Context, actor *models.JWTClaims, proposal *models.AssignmentProposal, course *models.Course) {
	s.emitAudit(ctx, &actor.UserID, models.AuditActionProposalReview, proposal, course)
	if s.notifier != nil {
		s.notifier.ProposalReviewed(proposal, course)
	}
}

func (s *ProposalService) emitAudit(ctx context.Context, userID *string, action string, proposal *models.AssignmentProposal, course *models.Course) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(proposal)
	if err != nil {
		payload = nil
	}
	resourceID := course.Code
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "proposal",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *ProposalService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func optionalNotes(notes string) *string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

func lastName(full string) string {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[1:], " ")
}
