package service

import (
	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// ClassifyCourse derives the staffing summary for one course. First match wins:
// the explicit vacant flag beats any volume comparison, then a shortfall means
// partial, otherwise the course counts as fully staffed. HasIssues is orthogonal
// and also catches over-attribution, which the three states alone cannot express.
// A course with no attribution at all is simply unassigned, never flagged.
func ClassifyCourse(course models.Course, assignments []models.Assignment) models.CourseStatus {
	agg := AggregateVolumes(assignments)
	reqV1, reqV2 := RequiredVolumes(course)

	status := models.CourseStatus{
		Assignments:    len(assignments),
		TotalVolume:    reqV1 + reqV2,
		AssignedVolume: agg.Vol1 + agg.Vol2,
		HasIssues:      len(assignments) > 0 && (agg.Vol1 != reqV1 || agg.Vol2 != reqV2),
	}

	switch {
	case course.Vacant:
		status.Vacancy = models.VacancyFull
	case status.AssignedVolume < status.TotalVolume:
		status.Vacancy = models.VacancyPartial
	default:
		status.Vacancy = models.VacancyNone
	}
	return status
}

// DisplayState collapses staffing to the two-state badge used by list and card
// views. It is deliberately not unified with ClassifyCourse: the list badge has
// no notion of partial staffing or issues.
func DisplayState(course models.Course, assignments []models.Assignment) models.DisplayState {
	switch {
	case course.Vacant:
		return models.DisplayVacant
	case len(assignments) > 0:
		return models.DisplayAssigned
	default:
		return models.DisplayPending
	}
}
