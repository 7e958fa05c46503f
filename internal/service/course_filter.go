package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// CourseRecord pairs a course with its fetched attribution rows. The filter and
// sort layer always receives the complete collection, never a partial page.
type CourseRecord struct {
	Course      models.Course
	Assignments []models.Assignment
}

// Status filter values accepted by FilterCourses.
const (
	StatusFilterVacant     = "vacant"
	StatusFilterPartial    = "partial"
	StatusFilterAssigned   = "assigned"
	StatusFilterWithIssues = "with_issues"
)

const filterAll = "all"

// FilterCourses applies the AND-combined predicates over the full collection.
// Neutral filters ("all" or empty) preserve the input order and membership.
func FilterCourses(records []CourseRecord, filter models.CourseFilter) []CourseRecord {
	out := make([]CourseRecord, 0, len(records))
	for _, rec := range records {
		if !matchesFilter(rec, filter) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesFilter(rec CourseRecord, filter models.CourseFilter) bool {
	course := rec.Course
	if !passThrough(filter.Faculty) && course.Faculty != filter.Faculty {
		return false
	}
	if !passThrough(filter.AttributionFaculty) && !hasAttributionFaculty(rec, filter.AttributionFaculty) {
		return false
	}
	if !passThrough(filter.School) && course.SchoolName() != filter.School {
		return false
	}
	if !passThrough(filter.AcademicYear) && course.AcademicYear != filter.AcademicYear {
		return false
	}
	if !passThrough(filter.Status) && !matchesStatus(rec, filter.Status) {
		return false
	}
	if filter.Search != "" && !matchesSearch(course, filter.Search) {
		return false
	}
	return true
}

func passThrough(value string) bool {
	return value == "" || value == filterAll
}

func hasAttributionFaculty(rec CourseRecord, faculty string) bool {
	for _, a := range rec.Assignments {
		if a.FacultyOrDefault(rec.Course.Faculty) == faculty {
			return true
		}
	}
	return false
}

func matchesStatus(rec CourseRecord, status string) bool {
	derived := ClassifyCourse(rec.Course, rec.Assignments)
	switch status {
	case StatusFilterVacant:
		return derived.Vacancy == models.VacancyFull
	case StatusFilterPartial:
		return derived.Vacancy == models.VacancyPartial
	case StatusFilterAssigned:
		return derived.Vacancy == models.VacancyNone
	case StatusFilterWithIssues:
		return derived.HasIssues
	}
	return false
}

func matchesSearch(course models.Course, search string) bool {
	needle := strings.ToLower(search)
	for _, haystack := range []string{course.Title, course.Code, course.Faculty, course.Subcategory} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

// SortCourses orders records by the requested field. The sort is stable: equal
// keys keep their input order. An unknown field leaves the input untouched.
func SortCourses(records []CourseRecord, spec models.CourseSort) {
	less := comparatorFor(spec.Field)
	if less == nil {
		return
	}
	desc := strings.EqualFold(spec.Direction, "desc")
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func comparatorFor(field string) func(a, b CourseRecord) bool {
	switch field {
	case models.SortByTitle:
		return func(a, b CourseRecord) bool {
			return lessFold(a.Course.Title, b.Course.Title)
		}
	case models.SortByCode:
		return func(a, b CourseRecord) bool {
			return lessFold(a.Course.Code, b.Course.Code)
		}
	case models.SortByFaculty:
		return func(a, b CourseRecord) bool {
			return lessFold(a.Course.Faculty, b.Course.Faculty)
		}
	case models.SortByVacantStatus:
		return func(a, b CourseRecord) bool {
			return vacancyRank(a) < vacancyRank(b)
		}
	case models.SortByAssignmentCount:
		return func(a, b CourseRecord) bool {
			return len(a.Assignments) < len(b.Assignments)
		}
	case models.SortByTotalVolume:
		return func(a, b CourseRecord) bool {
			a1, a2 := RequiredVolumes(a.Course)
			b1, b2 := RequiredVolumes(b.Course)
			return a1+a2 < b1+b2
		}
	}
	return nil
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func vacancyRank(rec CourseRecord) int {
	switch ClassifyCourse(rec.Course, rec.Assignments).Vacancy {
	case models.VacancyFull:
		return 0
	case models.VacancyPartial:
		return 1
	default:
		return 2
	}
}

// PaginateCourses slices the already filtered and sorted collection.
func PaginateCourses(records []CourseRecord, page, pageSize int) ([]CourseRecord, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	meta := models.Pagination{Page: page, PageSize: pageSize, TotalCount: len(records)}

	start := (page - 1) * pageSize
	if start >= len(records) {
		return []CourseRecord{}, meta
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], meta
}
