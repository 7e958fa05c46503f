package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

func dashboardFixtures() (*stubCourseStore, *stubAssignmentStore) {
	vacantSci := &models.Course{ID: 1, Code: "A", Faculty: "Science", Vacant: true, Vol1Total: fp(24)}
	vacantHum := &models.Course{ID: 2, Code: "B", Faculty: "Humanities", Vacant: true}
	partial := &models.Course{ID: 3, Code: "C", Faculty: "Science", Vol1Total: fp(24)}
	staffed := &models.Course{ID: 4, Code: "D", Faculty: "Science", Vol1Total: fp(24)}
	over := &models.Course{ID: 5, Code: "E", Faculty: "Science", Vol1Total: fp(24)}

	courses := newStubCourseStore(vacantSci, vacantHum, partial, staffed, over)
	assignments := newStubAssignmentStore()
	assignments.byCourse[3] = []models.Assignment{attribution(10, 0)}
	assignments.byCourse[4] = []models.Assignment{attribution(24, 0)}
	assignments.byCourse[5] = []models.Assignment{attribution(30, 0)}
	return courses, assignments
}

func TestDashboardOverview(t *testing.T) {
	courses, assignments := dashboardFixtures()
	proposals := newStubProposalStore(
		&models.AssignmentProposal{ID: 1, Status: models.ReviewStatusPending},
		&models.AssignmentProposal{ID: 2, Status: models.ReviewStatusApproved},
	)
	modifications := newStubModificationStore(
		&models.ModificationRequest{ID: 1, Status: models.ReviewStatusPending},
	)

	svc := NewDashboardService(courses, assignments, proposals, modifications, nil, time.Minute, nil)
	overview, fromCache, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.False(t, fromCache)
	assert.Equal(t, 5, overview.TotalCourses)
	assert.Equal(t, 2, overview.VacantCourses)
	assert.Equal(t, 1, overview.PartialCourses)
	assert.Equal(t, 2, overview.StaffedCourses)
	assert.Equal(t, 2, overview.CoursesWithIssues)
	assert.Equal(t, 1, overview.PendingProposals)
	assert.Equal(t, 1, overview.PendingModifications)
	// Sorted by count desc, then faculty name.
	require.Len(t, overview.VacantByFaculty, 2)
	assert.Equal(t, FacultyCount{Faculty: "Humanities", Count: 1}, overview.VacantByFaculty[0])
	assert.Equal(t, FacultyCount{Faculty: "Science", Count: 1}, overview.VacantByFaculty[1])
}

func TestDashboardOverviewServedFromCache(t *testing.T) {
	courses, assignments := dashboardFixtures()
	cache := newStubCache()

	svc := NewDashboardService(courses, assignments, newStubProposalStore(), newStubModificationStore(), cache, time.Minute, nil)

	first, fromCache, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, cache.sets)

	second, fromCache, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first.TotalCourses, second.TotalCourses)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardOverviewCacheFailureDegradesToCompute(t *testing.T) {
	courses, assignments := dashboardFixtures()
	cache := newStubCache()
	cache.getErr = assert.AnError

	svc := NewDashboardService(courses, assignments, newStubProposalStore(), newStubModificationStore(), cache, time.Minute, nil)
	overview, fromCache, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 5, overview.TotalCourses)
}
