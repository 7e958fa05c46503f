package models

import "time"

// CourseCoordinator records who is authorized to validate a course's attribution.
type CourseCoordinator struct {
	ID        int64     `db:"id" json:"id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidationStatus is the outcome of a coordinator validation round.
type ValidationStatus string

const (
	ValidationPending         ValidationStatus = "pending"
	ValidationValidated       ValidationStatus = "validated"
	ValidationNeedsCorrection ValidationStatus = "needs_correction"
	ValidationRejected        ValidationStatus = "rejected"
)

// CoordinatorValidation tracks one validation request sent to a coordinator.
type CoordinatorValidation struct {
	ID            int64            `db:"id" json:"id"`
	CourseID      int64            `db:"course_id" json:"course_id"`
	CoordinatorID int64            `db:"coordinator_id" json:"coordinator_id"`
	Status        ValidationStatus `db:"status" json:"status"`
	Comment       *string          `db:"comment" json:"comment,omitempty"`
	RequestedAt   time.Time        `db:"requested_at" json:"requested_at"`
	DecidedAt     *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
}
