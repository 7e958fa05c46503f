package models

import "time"

// AssignmentSource tags which historical import path produced an attribution row.
// The two legacy tables were collapsed into one table with this discriminator;
// the precedence rule between them lives in the volume aggregation logic.
type AssignmentSource string

const (
	// SourceHourAttribution is the preferred source.
	SourceHourAttribution AssignmentSource = "hour_attribution"
	// SourceCourseAssignment is the legacy source, used as a fallback.
	SourceCourseAssignment AssignmentSource = "course_assignment"
)

// Assignment types carried over from the legacy data.
const (
	AssignmentTypeCoordinator  = "coordinator"
	AssignmentTypeAssistant    = "assistant"
	AssignmentTypeLecturer     = "lecturer"
	AssignmentTypeTPSupervisor = "tp_supervisor"
)

// Assignment links a course to a teacher with the hours attributed per period.
// A nil TeacherID denotes the synthetic "unassigned remainder" pseudo-row, which
// is materialized for display only and never persisted.
type Assignment struct {
	ID              int64            `db:"id" json:"id"`
	CourseID        int64            `db:"course_id" json:"course_id"`
	TeacherID       *int64           `db:"teacher_id" json:"teacher_id,omitempty"`
	Source          AssignmentSource `db:"source" json:"source"`
	Vol1Hours       float64          `db:"vol1_hours" json:"vol1_hours"`
	Vol2Hours       float64          `db:"vol2_hours" json:"vol2_hours"`
	IsCoordinator   bool             `db:"is_coordinator" json:"is_coordinator"`
	AssignmentType  *string          `db:"assignment_type" json:"assignment_type,omitempty"`
	ValidatedByCoord *bool           `db:"validated_by_coord" json:"validated_by_coord,omitempty"`
	Faculty         *string          `db:"faculty" json:"faculty,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`

	// Joined teacher detail, populated on list queries.
	TeacherFirstName *string `db:"teacher_first_name" json:"teacher_first_name,omitempty"`
	TeacherLastName  *string `db:"teacher_last_name" json:"teacher_last_name,omitempty"`
	TeacherEmail     *string `db:"teacher_email" json:"teacher_email,omitempty"`
}

// FacultyOrDefault returns the assignment's recorded faculty, falling back to
// the owning course's faculty when the row carries none.
func (a Assignment) FacultyOrDefault(courseFaculty string) string {
	if a.Faculty != nil && *a.Faculty != "" {
		return *a.Faculty
	}
	return courseFaculty
}
