package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

// Shared in-memory doubles for the service-layer interfaces.

type stubCourseStore struct {
	courses     map[int64]*models.Course
	byCode      map[string]*models.Course
	listErr     error
	createdIDs  int64
	updated     []models.Course
	setVacantTo []bool
	// setVacantErr simulates the CAS update matching zero rows.
	setVacantErr error
	txErr        error
}

func newStubCourseStore(courses ...*models.Course) *stubCourseStore {
	s := &stubCourseStore{
		courses: make(map[int64]*models.Course),
		byCode:  make(map[string]*models.Course),
	}
	for _, c := range courses {
		s.courses[c.ID] = c
		s.byCode[c.Code] = c
	}
	return s
}

func (s *stubCourseStore) ListAll(ctx context.Context) ([]models.Course, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCourseStore) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseStore) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if c, ok := s.byCode[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseStore) Create(ctx context.Context, course *models.Course) error {
	s.createdIDs++
	course.ID = s.createdIDs
	s.courses[course.ID] = course
	s.byCode[course.Code] = course
	return nil
}

func (s *stubCourseStore) Update(ctx context.Context, course *models.Course) error {
	existing, ok := s.courses[course.ID]
	if !ok || existing.Version != course.Version {
		return sql.ErrNoRows
	}
	course.Version++
	s.courses[course.ID] = course
	s.updated = append(s.updated, *course)
	return nil
}

func (s *stubCourseStore) UpsertByCode(ctx context.Context, course *models.Course) error {
	if existing, ok := s.byCode[course.Code]; ok {
		course.ID = existing.ID
	} else {
		s.createdIDs++
		course.ID = s.createdIDs
	}
	s.courses[course.ID] = course
	s.byCode[course.Code] = course
	return nil
}

func (s *stubCourseStore) Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	return fn(nil)
}

func (s *stubCourseStore) SetVacant(ctx context.Context, tx *sqlx.Tx, courseID int64, vacant bool, version int64) error {
	if s.setVacantErr != nil {
		return s.setVacantErr
	}
	s.setVacantTo = append(s.setVacantTo, vacant)
	if c, ok := s.courses[courseID]; ok {
		c.Vacant = vacant
		c.Version++
	}
	return nil
}

type stubAssignmentStore struct {
	byCourse map[int64][]models.Assignment
	replaced map[int64][]models.Assignment
	created  []models.Assignment
}

func newStubAssignmentStore() *stubAssignmentStore {
	return &stubAssignmentStore{
		byCourse: make(map[int64][]models.Assignment),
		replaced: make(map[int64][]models.Assignment),
	}
}

func (s *stubAssignmentStore) ListByCourse(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	return s.byCourse[courseID], nil
}

func (s *stubAssignmentStore) ListByCourses(ctx context.Context, courseIDs []int64) (map[int64][]models.Assignment, error) {
	out := make(map[int64][]models.Assignment, len(courseIDs))
	for _, id := range courseIDs {
		if rows, ok := s.byCourse[id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

func (s *stubAssignmentStore) Create(ctx context.Context, assignment *models.Assignment) error {
	s.created = append(s.created, *assignment)
	s.byCourse[assignment.CourseID] = append(s.byCourse[assignment.CourseID], *assignment)
	return nil
}

func (s *stubAssignmentStore) ReplaceForCourse(ctx context.Context, tx *sqlx.Tx, courseID int64, assignments []models.Assignment) error {
	s.replaced[courseID] = assignments
	s.byCourse[courseID] = assignments
	return nil
}

type stubProposalStore struct {
	proposals map[int64]*models.AssignmentProposal
	nextID    int64
	reviewErr error
	reviewed  []models.ReviewStatus
}

func newStubProposalStore(proposals ...*models.AssignmentProposal) *stubProposalStore {
	s := &stubProposalStore{proposals: make(map[int64]*models.AssignmentProposal)}
	for _, p := range proposals {
		s.proposals[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *stubProposalStore) Create(ctx context.Context, proposal *models.AssignmentProposal) error {
	s.nextID++
	proposal.ID = s.nextID
	proposal.Status = models.ReviewStatusPending
	s.proposals[proposal.ID] = proposal
	return nil
}

func (s *stubProposalStore) GetByID(ctx context.Context, id int64) (*models.AssignmentProposal, error) {
	if p, ok := s.proposals[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubProposalStore) List(ctx context.Context, filter models.ProposalFilter) ([]models.AssignmentProposal, error) {
	out := make([]models.AssignmentProposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if filter.CourseID != 0 && p.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProposalStore) Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error {
	if s.reviewErr != nil {
		return s.reviewErr
	}
	p, ok := s.proposals[id]
	if !ok || p.Status != models.ReviewStatusPending {
		return sql.ErrNoRows
	}
	p.Status = status
	p.AdminNotes = adminNotes
	p.ValidatedBy = &reviewer
	p.ValidatedAt = &reviewedAt
	s.reviewed = append(s.reviewed, status)
	return nil
}

type stubModificationStore struct {
	requests  map[int64]*models.ModificationRequest
	nextID    int64
	reviewErr error
}

func newStubModificationStore(requests ...*models.ModificationRequest) *stubModificationStore {
	s := &stubModificationStore{requests: make(map[int64]*models.ModificationRequest)}
	for _, r := range requests {
		s.requests[r.ID] = r
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *stubModificationStore) Create(ctx context.Context, req *models.ModificationRequest) error {
	s.nextID++
	req.ID = s.nextID
	req.Status = models.ReviewStatusPending
	s.requests[req.ID] = req
	return nil
}

func (s *stubModificationStore) GetByID(ctx context.Context, id int64) (*models.ModificationRequest, error) {
	if r, ok := s.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubModificationStore) List(ctx context.Context, filter models.ModificationFilter) ([]models.ModificationRequest, error) {
	out := make([]models.ModificationRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if filter.CourseID != 0 && r.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.ModificationType != filter.Type {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubModificationStore) Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error {
	if s.reviewErr != nil {
		return s.reviewErr
	}
	r, ok := s.requests[id]
	if !ok || r.Status != models.ReviewStatusPending {
		return sql.ErrNoRows
	}
	r.Status = status
	r.AdminNotes = adminNotes
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &reviewedAt
	return nil
}

type stubTeacherStore struct {
	byEmail  map[string]*models.Teacher
	nextID   int64
	upserted []models.Teacher
}

func newStubTeacherStore(teachers ...*models.Teacher) *stubTeacherStore {
	s := &stubTeacherStore{byEmail: make(map[string]*models.Teacher)}
	for _, t := range teachers {
		s.byEmail[t.Email] = t
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
	}
	return s
}

func (s *stubTeacherStore) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if t, ok := s.byEmail[email]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTeacherStore) UpsertByEmail(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	if existing, ok := s.byEmail[teacher.Email]; ok {
		teacher.ID = existing.ID
	} else {
		s.nextID++
		teacher.ID = s.nextID
	}
	s.byEmail[teacher.Email] = teacher
	s.upserted = append(s.upserted, *teacher)
	return nil
}

type stubCoordinatorStore struct {
	coordinators map[int64][]models.CourseCoordinator
	validations  map[int64]*models.CoordinatorValidation
	nextID       int64
	decided      []models.ValidationStatus
}

func newStubCoordinatorStore() *stubCoordinatorStore {
	return &stubCoordinatorStore{
		coordinators: make(map[int64][]models.CourseCoordinator),
		validations:  make(map[int64]*models.CoordinatorValidation),
	}
}

func (s *stubCoordinatorStore) ListByCourse(ctx context.Context, courseID int64) ([]models.CourseCoordinator, error) {
	return s.coordinators[courseID], nil
}

func (s *stubCoordinatorStore) FindByCourseAndEmail(ctx context.Context, courseID int64, email string) (*models.CourseCoordinator, error) {
	for _, c := range s.coordinators[courseID] {
		if c.Email == email {
			cp := c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubCoordinatorStore) Add(ctx context.Context, coordinator *models.CourseCoordinator) error {
	s.nextID++
	coordinator.ID = s.nextID
	s.coordinators[coordinator.CourseID] = append(s.coordinators[coordinator.CourseID], *coordinator)
	return nil
}

func (s *stubCoordinatorStore) CreateValidation(ctx context.Context, validation *models.CoordinatorValidation) error {
	s.nextID++
	validation.ID = s.nextID
	validation.Status = models.ValidationPending
	s.validations[validation.ID] = validation
	return nil
}

func (s *stubCoordinatorStore) ListValidationsByCourse(ctx context.Context, courseID int64) ([]models.CoordinatorValidation, error) {
	out := make([]models.CoordinatorValidation, 0)
	for _, v := range s.validations {
		if v.CourseID == courseID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *stubCoordinatorStore) GetValidation(ctx context.Context, id int64) (*models.CoordinatorValidation, error) {
	if v, ok := s.validations[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCoordinatorStore) Decide(ctx context.Context, id int64, status models.ValidationStatus, comment *string, decidedAt time.Time) error {
	v, ok := s.validations[id]
	if !ok || v.Status != models.ValidationPending {
		return sql.ErrNoRows
	}
	v.Status = status
	v.Comment = comment
	v.DecidedAt = &decidedAt
	s.decided = append(s.decided, status)
	return nil
}

type stubAudit struct {
	logs []models.AuditLog
	err  error
}

func (s *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, *log)
	return nil
}

type stubNotifier struct {
	proposalSubmitted     int
	proposalReviewed      int
	modificationSubmitted int
	modificationReviewed  int
	validationRequested   int
}

func (s *stubNotifier) ProposalSubmitted(*models.AssignmentProposal, *models.Course) {
	s.proposalSubmitted++
}

func (s *stubNotifier) ProposalReviewed(*models.AssignmentProposal, *models.Course) {
	s.proposalReviewed++
}

func (s *stubNotifier) ModificationSubmitted(*models.ModificationRequest, *models.Course) {
	s.modificationSubmitted++
}

func (s *stubNotifier) ModificationReviewed(*models.ModificationRequest, *models.Course) {
	s.modificationReviewed++
}

func (s *stubNotifier) ValidationRequested(*models.CourseCoordinator, *models.Course) {
	s.validationRequested++
}

type stubCache struct {
	values          map[string][]byte
	deletedPatterns []string
	sets            int
	getErr          error
}

func newStubCache() *stubCache {
	return &stubCache{values: make(map[string][]byte)}
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	s.sets++
	return nil
}

func (s *stubCache) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	s.values = make(map[string][]byte)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{
		UserID:   "u-1",
		Email:    "admin@example.org",
		FullName: "Admin User",
		Role:     models.RoleAdmin,
	}
}
