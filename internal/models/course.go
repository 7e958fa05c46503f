package models

import "time"

// Course is the catalog entry being staffed. The two volume_total_vol{1,2} and
// vol{1,2}_total column pairs both survive from the legacy imports; the
// resolution rule between them lives in the volume logic, not here.
type Course struct {
	ID              int64     `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Title           string    `db:"title" json:"title"`
	Faculty         string    `db:"faculty" json:"faculty"`
	Subcategory     string    `db:"subcategory" json:"subcategory"`
	School          *string   `db:"school" json:"school,omitempty"`
	AcademicYear    string    `db:"academic_year" json:"academic_year"`
	VolumeTotalVol1 *float64  `db:"volume_total_vol1" json:"volume_total_vol1,omitempty"`
	VolumeTotalVol2 *float64  `db:"volume_total_vol2" json:"volume_total_vol2,omitempty"`
	Vol1Total       *float64  `db:"vol1_total" json:"vol1_total,omitempty"`
	Vol2Total       *float64  `db:"vol2_total" json:"vol2_total,omitempty"`
	Vacant          bool      `db:"vacant" json:"vacant"`
	Version         int64     `db:"version" json:"version"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolName returns the recorded school, falling back to the subcategory when
// the legacy row carries none.
func (c Course) SchoolName() string {
	if c.School != nil && *c.School != "" {
		return *c.School
	}
	return c.Subcategory
}

// VacancyState is the three-valued staffing classification.
type VacancyState string

const (
	// VacancyFull marks a course flagged vacant, regardless of attributed hours.
	VacancyFull VacancyState = "full"
	// VacancyPartial marks a course with attributed hours below the requirement.
	VacancyPartial VacancyState = "partial"
	// VacancyNone marks a fully staffed course.
	VacancyNone VacancyState = "none"
)

// DisplayState is the two-state badge shown on list and card views.
type DisplayState string

const (
	DisplayVacant   DisplayState = "vacant"
	DisplayAssigned DisplayState = "assigned"
	DisplayPending  DisplayState = "pending"
)

// DistributionVerdict reports whether attributed hours match the required
// volume. Message is empty for a clean match.
type DistributionVerdict struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// CourseStatus is the derived staffing summary for one course.
type CourseStatus struct {
	Vacancy        VacancyState `json:"vacancy"`
	Assignments    int          `json:"assignments"`
	TotalVolume    float64      `json:"total_volume"`
	AssignedVolume float64      `json:"assigned_volume"`
	HasIssues      bool         `json:"has_issues"`
}

// CourseSummary is one row of the course listing: the unmutated course plus
// its derived staffing state.
type CourseSummary struct {
	Course         Course              `json:"course"`
	Status         CourseStatus        `json:"status"`
	Display        DisplayState        `json:"display_state"`
	Verdict        DistributionVerdict `json:"verdict"`
	SourceConflict bool                `json:"source_conflict,omitempty"`
}

// CourseDetail is the full single-course view, including the synthetic
// unassigned remainder row when hours are missing.
type CourseDetail struct {
	Course         Course                  `json:"course"`
	Assignments    []Assignment            `json:"assignments"`
	Remainder      *Assignment             `json:"unassigned_remainder,omitempty"`
	Status         CourseStatus            `json:"status"`
	Display        DisplayState            `json:"display_state"`
	Verdict        DistributionVerdict     `json:"verdict"`
	SourceConflict bool                    `json:"source_conflict,omitempty"`
	Coordinators   []CourseCoordinator     `json:"coordinators,omitempty"`
	Validations    []CoordinatorValidation `json:"validations,omitempty"`
}

// CourseFilter captures the AND-combined list predicates. The zero value and the
// literal "all" both pass a field through.
type CourseFilter struct {
	Faculty            string
	AttributionFaculty string
	School             string
	Status             string
	AcademicYear       string
	Search             string
}

// Sortable course listing fields.
const (
	SortByTitle           = "title"
	SortByCode            = "code"
	SortByFaculty         = "faculty"
	SortByVacantStatus    = "vacant_status"
	SortByAssignmentCount = "assignment_count"
	SortByTotalVolume     = "total_volume"
)

// CourseSort names the field and direction for the listing order.
type CourseSort struct {
	Field     string
	Direction string
}

// Pagination describes one page of a listing response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
