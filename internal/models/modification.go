package models

import "time"

// ModificationType enumerates supported modification request categories.
type ModificationType string

const (
	ModificationTypeAssignment ModificationType = "assignment"
	ModificationTypeContent    ModificationType = "content"
	ModificationTypeSchedule   ModificationType = "schedule"
	ModificationTypeOther      ModificationType = "other"
)

// ValidModificationType reports whether t is one of the supported categories.
func ValidModificationType(t ModificationType) bool {
	switch t {
	case ModificationTypeAssignment, ModificationTypeContent, ModificationTypeSchedule, ModificationTypeOther:
		return true
	}
	return false
}

// ModificationRequest asks an admin to change an existing course.
type ModificationRequest struct {
	ID               int64            `db:"id" json:"id"`
	CourseID         int64            `db:"course_id" json:"course_id"`
	RequesterName    string           `db:"requester_name" json:"requester_name"`
	RequesterEmail   string           `db:"requester_email" json:"requester_email"`
	ModificationType ModificationType `db:"modification_type" json:"modification_type"`
	Description      string           `db:"description" json:"description"`
	Status           ReviewStatus     `db:"status" json:"status"`
	AdminNotes       *string          `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	ReviewedAt       *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy       *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// ModificationFilter constrains modification request listings.
type ModificationFilter struct {
	CourseID int64
	Status   ReviewStatus
	Type     ModificationType
}
