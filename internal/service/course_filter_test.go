package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

func record(code, title, faculty string, vacant bool, assignments ...models.Assignment) CourseRecord {
	return CourseRecord{
		Course: models.Course{
			Code:         code,
			Title:        title,
			Faculty:      faculty,
			AcademicYear: "2025-2026",
			Vacant:       vacant,
			Vol1Total:    fp(24),
		},
		Assignments: assignments,
	}
}

func codes(records []CourseRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Course.Code)
	}
	return out
}

func TestFilterCoursesNeutralFilters(t *testing.T) {
	records := []CourseRecord{
		record("MATH101", "Calculus", "Science", true),
		record("HIST200", "Modern History", "Humanities", false),
	}

	for _, filter := range []models.CourseFilter{
		{},
		{Faculty: "all", School: "all", Status: "all", AcademicYear: ""},
	} {
		got := FilterCourses(records, filter)
		assert.Equal(t, []string{"MATH101", "HIST200"}, codes(got))
	}
}

func TestFilterCoursesPredicatesCombineWithAnd(t *testing.T) {
	records := []CourseRecord{
		record("MATH101", "Calculus", "Science", true),
		record("PHYS101", "Mechanics", "Science", false, attribution(24, 0)),
		record("HIST200", "Modern History", "Humanities", true),
	}

	got := FilterCourses(records, models.CourseFilter{Faculty: "Science", Status: StatusFilterVacant})
	assert.Equal(t, []string{"MATH101"}, codes(got))
}

func TestFilterCoursesByStatus(t *testing.T) {
	vacant := record("A", "a", "F", true)
	partial := record("B", "b", "F", false, attribution(10, 0))
	staffed := record("C", "c", "F", false, attribution(24, 0))
	over := record("D", "d", "F", false, attribution(30, 0))
	records := []CourseRecord{vacant, partial, staffed, over}

	tests := []struct {
		status string
		want   []string
	}{
		{StatusFilterVacant, []string{"A"}},
		{StatusFilterPartial, []string{"B"}},
		{StatusFilterAssigned, []string{"C", "D"}},
		{StatusFilterWithIssues, []string{"B", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := FilterCourses(records, models.CourseFilter{Status: tt.status})
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestFilterCoursesSearchIsCaseInsensitive(t *testing.T) {
	records := []CourseRecord{
		record("MATH101", "Calculus I", "Science", false),
		record("HIST200", "Modern History", "Humanities", false),
	}

	got := FilterCourses(records, models.CourseFilter{Search: "calc"})
	require.Len(t, got, 1)
	assert.Equal(t, "MATH101", got[0].Course.Code)

	got = FilterCourses(records, models.CourseFilter{Search: "hist"})
	assert.Equal(t, []string{"HIST200"}, codes(got))
}

func TestFilterCoursesByAttributionFaculty(t *testing.T) {
	external := "Engineering"
	records := []CourseRecord{
		record("A", "a", "Science", false, models.Assignment{Source: models.SourceHourAttribution, Faculty: &external}),
		record("B", "b", "Science", false, attribution(10, 0)),
	}

	got := FilterCourses(records, models.CourseFilter{AttributionFaculty: "Engineering"})
	assert.Equal(t, []string{"A"}, codes(got))

	// Rows without a recorded faculty inherit the course's.
	got = FilterCourses(records, models.CourseFilter{AttributionFaculty: "Science"})
	assert.Equal(t, []string{"B"}, codes(got))
}

func TestFilterCoursesBySchoolFallsBackToSubcategory(t *testing.T) {
	recorded := "SSH"
	withSchool := CourseRecord{Course: models.Course{Code: "A", Faculty: "FSM", Subcategory: "Other", School: &recorded}}
	withoutSchool := CourseRecord{Course: models.Course{Code: "B", Faculty: "FSM", Subcategory: "SSH"}}
	records := []CourseRecord{withSchool, withoutSchool}

	got := FilterCourses(records, models.CourseFilter{School: "SSH"})
	assert.Equal(t, []string{"A", "B"}, codes(got))

	// The faculty never stands in for a missing school.
	got = FilterCourses(records, models.CourseFilter{School: "FSM"})
	assert.Empty(t, got)
}

func TestSortCourses(t *testing.T) {
	t.Run("by title ascending", func(t *testing.T) {
		records := []CourseRecord{
			record("B", "banana", "F", false),
			record("A", "apple", "F", false),
		}
		SortCourses(records, models.CourseSort{Field: models.SortByTitle})
		assert.Equal(t, []string{"A", "B"}, codes(records))
	})

	t.Run("descending inverts the order", func(t *testing.T) {
		records := []CourseRecord{
			record("A", "apple", "F", false),
			record("B", "banana", "F", false),
		}
		SortCourses(records, models.CourseSort{Field: models.SortByTitle, Direction: "desc"})
		assert.Equal(t, []string{"B", "A"}, codes(records))
	})

	t.Run("stable on equal keys", func(t *testing.T) {
		records := []CourseRecord{
			record("FIRST", "same", "F", false),
			record("SECOND", "same", "F", false),
			record("THIRD", "same", "F", false),
		}
		SortCourses(records, models.CourseSort{Field: models.SortByTitle})
		assert.Equal(t, []string{"FIRST", "SECOND", "THIRD"}, codes(records))
	})

	t.Run("unknown field leaves input untouched", func(t *testing.T) {
		records := []CourseRecord{
			record("Z", "z", "F", false),
			record("A", "a", "F", false),
		}
		SortCourses(records, models.CourseSort{Field: "bogus"})
		assert.Equal(t, []string{"Z", "A"}, codes(records))
	})

	t.Run("by vacancy rank", func(t *testing.T) {
		records := []CourseRecord{
			record("STAFFED", "s", "F", false, attribution(24, 0)),
			record("VACANT", "v", "F", true),
			record("PARTIAL", "p", "F", false, attribution(10, 0)),
		}
		SortCourses(records, models.CourseSort{Field: models.SortByVacantStatus})
		assert.Equal(t, []string{"VACANT", "PARTIAL", "STAFFED"}, codes(records))
	})

	t.Run("by assignment count", func(t *testing.T) {
		records := []CourseRecord{
			record("TWO", "t", "F", false, attribution(10, 0), attribution(14, 0)),
			record("NONE", "n", "F", false),
			record("ONE", "o", "F", false, attribution(24, 0)),
		}
		SortCourses(records, models.CourseSort{Field: models.SortByAssignmentCount})
		assert.Equal(t, []string{"NONE", "ONE", "TWO"}, codes(records))
	})
}

func TestPaginateCourses(t *testing.T) {
	records := make([]CourseRecord, 0, 5)
	for _, code := range []string{"A", "B", "C", "D", "E"} {
		records = append(records, record(code, code, "F", false))
	}

	t.Run("first page", func(t *testing.T) {
		page, meta := PaginateCourses(records, 1, 2)
		assert.Equal(t, []string{"A", "B"}, codes(page))
		assert.Equal(t, 5, meta.TotalCount)
		assert.Equal(t, 1, meta.Page)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, _ := PaginateCourses(records, 3, 2)
		assert.Equal(t, []string{"E"}, codes(page))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, meta := PaginateCourses(records, 9, 2)
		assert.Empty(t, page)
		assert.Equal(t, 5, meta.TotalCount)
	})

	t.Run("defaults clamp invalid values", func(t *testing.T) {
		page, meta := PaginateCourses(records, 0, -1)
		assert.Len(t, page, 5)
		assert.Equal(t, 1, meta.Page)
		assert.Equal(t, 20, meta.PageSize)
	})
}
