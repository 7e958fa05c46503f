package dto

// CreateCourseRequest is the payload for manual course entry.
type CreateCourseRequest struct {
	Code            string   `json:"code" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Faculty         string   `json:"faculty"`
	Subcategory     string   `json:"subcategory"`
	School          *string  `json:"school,omitempty"`
	AcademicYear    string   `json:"academic_year" validate:"required"`
	VolumeTotalVol1 *float64 `json:"volume_total_vol1,omitempty"`
	VolumeTotalVol2 *float64 `json:"volume_total_vol2,omitempty"`
	Vol1Total       *float64 `json:"vol1_total,omitempty"`
	Vol2Total       *float64 `json:"vol2_total,omitempty"`
	Vacant          bool     `json:"vacant"`
}

// UpdateCourseRequest is the payload for course edits. Version carries the
// compare-and-swap expectation.
type UpdateCourseRequest struct {
	Title           string   `json:"title" validate:"required"`
	Faculty         string   `json:"faculty"`
	Subcategory     string   `json:"subcategory"`
	School          *string  `json:"school,omitempty"`
	AcademicYear    string   `json:"academic_year" validate:"required"`
	VolumeTotalVol1 *float64 `json:"volume_total_vol1,omitempty"`
	VolumeTotalVol2 *float64 `json:"volume_total_vol2,omitempty"`
	Vol1Total       *float64 `json:"vol1_total,omitempty"`
	Vol2Total       *float64 `json:"vol2_total,omitempty"`
	Vacant          bool     `json:"vacant"`
	Version         int64    `json:"version" validate:"required"`
}

// CourseListQuery carries the filter, sort, and pagination query parameters.
type CourseListQuery struct {
	Faculty            string `form:"faculty"`
	AttributionFaculty string `form:"attribution_faculty"`
	School             string `form:"school"`
	Status             string `form:"status"`
	AcademicYear       string `form:"academic_year"`
	Search             string `form:"search"`
	SortBy             string `form:"sort"`
	SortOrder          string `form:"order"`
	Page               int    `form:"page"`
	PageSize           int    `form:"page_size"`
}

// ImportReport summarizes one spreadsheet import run.
type ImportReport struct {
	CoursesUpserted  int              `json:"courses_upserted"`
	TeachersUpserted int              `json:"teachers_upserted"`
	RowsSkipped      int              `json:"rows_skipped"`
	Errors           []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError reports one rejected spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
