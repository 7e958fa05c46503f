package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

// dashboardCachePattern matches every cached dashboard payload; any course or
// assignment write invalidates the lot.
const dashboardCachePattern = "dashboard:*"

const dashboardCacheKey = "dashboard:overview"

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type pendingCounter interface {
	List(ctx context.Context, filter models.ProposalFilter) ([]models.AssignmentProposal, error)
}

type modificationCounter interface {
	List(ctx context.Context, filter models.ModificationFilter) ([]models.ModificationRequest, error)
}

// DashboardOverview aggregates staffing state across the whole catalog.
type DashboardOverview struct {
	TotalCourses         int            `json:"total_courses"`
	VacantCourses        int            `json:"vacant_courses"`
	PartialCourses       int            `json:"partial_courses"`
	StaffedCourses       int            `json:"staffed_courses"`
	CoursesWithIssues    int            `json:"courses_with_issues"`
	PendingProposals     int            `json:"pending_proposals"`
	PendingModifications int            `json:"pending_modifications"`
	VacantByFaculty      []FacultyCount `json:"vacant_by_faculty"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

// FacultyCount is one faculty's share of vacant courses.
type FacultyCount struct {
	Faculty string `json:"faculty"`
	Count   int    `json:"count"`
}

// DashboardService serves the aggregated staffing overview, cached in Redis
// for the configured TTL. A cache failure degrades to a recomputation.
type DashboardService struct {
	courses       courseStore
	assignments   assignmentReader
	proposals     pendingCounter
	modifications modificationCounter
	cache         dashboardCache
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(
	courses courseStore,
	assignments assignmentReader,
	proposals pendingCounter,
	modifications modificationCounter,
	cache dashboardCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		courses:       courses,
		assignments:   assignments,
		proposals:     proposals,
		modifications: modifications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Overview returns the aggregated dashboard, reporting whether it was served
// from cache.
func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, bool, error) {
	if s.cache != nil {
		var cached DashboardOverview
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	overview, err := s.compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return overview, false, nil
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardOverview, error) {
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

	overview := &DashboardOverview{
		TotalCourses: len(courses),
		GeneratedAt:  s.now().UTC(),
	}
	vacantByFaculty := map[string]int{}
	for _, course := range courses {
		status := ClassifyCourse(course, byCourse[course.ID])
		switch status.Vacancy {
		case models.VacancyFull:
			overview.VacantCourses++
			vacantByFaculty[course.Faculty]++
		case models.VacancyPartial:
			overview.PartialCourses++
		default:
			overview.StaffedCourses++
		}
		if status.HasIssues {
			overview.CoursesWithIssues++
		}
	}

	for faculty, count := range vacantByFaculty {
		overview.VacantByFaculty = append(overview.VacantByFaculty, FacultyCount{Faculty: faculty, Count: count})
	}
	sort.Slice(overview.VacantByFaculty, func(i, j int) bool {
		a, b := overview.VacantByFaculty[i], overview.VacantByFaculty[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Faculty < b.Faculty
	})

	if s.proposals != nil {
		pending, err := s.proposals.List(ctx, models.ProposalFilter{Status: models.ReviewStatusPending})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending proposals")
		}
		overview.PendingProposals = len(pending)
	}
	if s.modifications != nil {
		pending, err := s.modifications.List(ctx, models.ModificationFilter{Status: models.ReviewStatusPending})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending modifications")
		}
		overview.PendingModifications = len(pending)
	}
	return overview, nil
}
