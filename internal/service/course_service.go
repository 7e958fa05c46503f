package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	"github.com/noah-isme/course-vacancy-api/pkg/export"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type courseStore interface {
	ListAll(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

type assignmentReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Assignment, error)
	ListByCourses(ctx context.Context, courseIDs []int64) (map[int64][]models.Assignment, error)
}

type coordinatorReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.CourseCoordinator, error)
	ListValidationsByCourse(ctx context.Context, courseID int64) ([]models.CoordinatorValidation, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CourseService serves the course catalog with its derived staffing state. The
// repository hands over the complete collection; filtering, sorting, and
// pagination all happen in memory so their semantics never depend on SQL.
type CourseService struct {
	courses      courseStore
	assignments  assignmentReader
	coordinators coordinatorReader
	cache        cacheInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(
	courses courseStore,
	assignments assignmentReader,
	coordinators coordinatorReader,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:      courses,
		assignments:  assignments,
		coordinators: coordinators,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns one page of the filtered and sorted course collection.
func (s *CourseService) List(ctx context.Context, query dto.CourseListQuery) ([]models.CourseSummary, models.Pagination, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	filtered := FilterCourses(records, models.CourseFilter{
		Faculty:            query.Faculty,
		AttributionFaculty: query.AttributionFaculty,
		School:             query.School,
		Status:             query.Status,
		AcademicYear:       query.AcademicYear,
		Search:             query.Search,
	})
	SortCourses(filtered, models.CourseSort{Field: query.SortBy, Direction: query.SortOrder})
	page, meta := PaginateCourses(filtered, query.Page, query.PageSize)

	summaries := make([]models.CourseSummary, 0, len(page))
	for _, rec := range page {
		summaries = append(summaries, summarize(rec))
	}
	return summaries, meta, nil
}

// Get returns the full detail view for one course, including the synthetic
// unassigned remainder when hours are missing.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	assignments, err := s.assignments.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	detail := &models.CourseDetail{
		Course:         *course,
		Assignments:    assignments,
		Remainder:      UnassignedRemainder(*course, assignments),
		Status:         ClassifyCourse(*course, assignments),
		Display:        DisplayState(*course, assignments),
		Verdict:        ValidateDistribution(*course, assignments),
		SourceConflict: AggregateVolumes(assignments).SourceConflict,
	}

	if s.coordinators != nil {
		if detail.Coordinators, err = s.coordinators.ListByCourse(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordinators")
		}
		if detail.Validations, err = s.coordinators.ListValidationsByCourse(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validations")
		}
	}
	return detail, nil
}

// Assignments returns a course's attribution rows, coordinators first.
func (s *CourseService) Assignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return assignments, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if existing, err := s.courses.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %s already exists", req.Code))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := &models.Course{
		Code:            req.Code,
		Title:           req.Title,
		Faculty:         req.Faculty,
		Subcategory:     req.Subcategory,
		School:          req.School,
		AcademicYear:    req.AcademicYear,
		VolumeTotalVol1: req.VolumeTotalVol1,
		VolumeTotalVol2: req.VolumeTotalVol2,
		Vol1Total:       req.Vol1Total,
		Vol2Total:       req.Vol2Total,
		Vacant:          req.Vacant,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateDashboards(ctx)
	return course, nil
}

// Update edits a course under optimistic concurrency: the caller echoes the
// version it read, and a stale echo loses with a conflict instead of silently
// overwriting a concurrent edit.
func (s *CourseService) Update(ctx context.Context, id int64, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Title = req.Title
	course.Faculty = req.Faculty
	course.Subcategory = req.Subcategory
	course.School = req.School
	course.AcademicYear = req.AcademicYear
	course.VolumeTotalVol1 = req.VolumeTotalVol1
	course.VolumeTotalVol2 = req.VolumeTotalVol2
	course.Vol1Total = req.Vol1Total
	course.Vol2Total = req.Vol2Total
	course.Vacant = req.Vacant
	course.Version = req.Version

	if err := s.courses.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrVersionConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateDashboards(ctx)
	return course, nil
}

// ExportCSV renders the filtered listing as a CSV table.
func (s *CourseService) ExportCSV(ctx context.Context, query dto.CourseListQuery) ([]byte, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterCourses(records, models.CourseFilter{
		Faculty:            query.Faculty,
		AttributionFaculty: query.AttributionFaculty,
		School:             query.School,
		Status:             query.Status,
		AcademicYear:       query.AcademicYear,
		Search:             query.Search,
	})
	SortCourses(filtered, models.CourseSort{Field: query.SortBy, Direction: query.SortOrder})

	table := export.Table{
		Header: []string{"Code", "Title", "Faculty", "School", "Academic Year", "Vacancy", "Assigned Hours", "Required Hours", "Valid"},
	}
	for _, rec := range filtered {
		summary := summarize(rec)
		table.Rows = append(table.Rows, []string{
			rec.Course.Code,
			rec.Course.Title,
			rec.Course.Faculty,
			rec.Course.SchoolName(),
			rec.Course.AcademicYear,
			string(summary.Status.Vacancy),
			formatHours(summary.Status.AssignedVolume),
			formatHours(summary.Status.TotalVolume),
			strconv.FormatBool(summary.Verdict.IsValid),
		})
	}
	data, err := export.NewCSVExporter().Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return data, nil
}

// ExportAttributionPDF renders one course's attribution sheet as a PDF.
func (s *CourseService) ExportAttributionPDF(ctx context.Context, courseID int64) ([]byte, error) {
	detail, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Header: []string{"Teacher", "Email", "Role", "Vol1 Hours", "Vol2 Hours"},
	}
	for _, a := range detail.Assignments {
		table.Rows = append(table.Rows, []string{
			teacherLabel(a),
			stringOrEmpty(a.TeacherEmail),
			assignmentRole(a),
			formatHours(a.Vol1Hours),
			formatHours(a.Vol2Hours),
		})
	}
	if detail.Remainder != nil {
		table.Rows = append(table.Rows, []string{
			"Unassigned",
			"",
			"",
			formatHours(detail.Remainder.Vol1Hours),
			formatHours(detail.Remainder.Vol2Hours),
		})
	}

	meta := []string{
		fmt.Sprintf("Code: %s", detail.Course.Code),
		fmt.Sprintf("Academic year: %s", detail.Course.AcademicYear),
		fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04")),
	}
	if !detail.Verdict.IsValid {
		meta = append(meta, fmt.Sprintf("Distribution mismatch: %s", detail.Verdict.Message))
	}

	data, err := export.NewPDFExporter().Render(export.Sheet{
		Title:     detail.Course.Title,
		MetaLines: meta,
		Table:     table,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return data, nil
}

func (s *CourseService) loadRecords(ctx context.Context) ([]CourseRecord, error) {
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	byCourse, err := s.assignments.ListByCourses(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	records := make([]CourseRecord, 0, len(courses))
	for _, c := range courses {
		records = append(records, CourseRecord{Course: c, Assignments: byCourse[c.ID]})
	}
	return records, nil
}

func (s *CourseService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func summarize(rec CourseRecord) models.CourseSummary {
	return models.CourseSummary{
		Course:         rec.Course,
		Status:         ClassifyCourse(rec.Course, rec.Assignments),
		Display:        DisplayState(rec.Course, rec.Assignments),
		Verdict:        ValidateDistribution(rec.Course, rec.Assignments),
		SourceConflict: AggregateVolumes(rec.Assignments).SourceConflict,
	}
}

func teacherLabel(a models.Assignment) string {
	first := stringOrEmpty(a.TeacherFirstName)
	last := stringOrEmpty(a.TeacherLastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case last != "":
		return last
	case first != "":
		return first
	}
	return "Unknown"
}

func assignmentRole(a models.Assignment) string {
	if a.IsCoordinator {
		return models.AssignmentTypeCoordinator
	}
	return stringOrEmpty(a.AssignmentType)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
