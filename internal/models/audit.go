package models

import "time"

// Audit actions recorded by the workflow and course services.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionProposalSubmit    = "PROPOSAL_SUBMIT"
	AuditActionProposalReview    = "PROPOSAL_REVIEW"
	AuditActionModificationSubmit = "MODIFICATION_SUBMIT"
	AuditActionModificationReview = "MODIFICATION_REVIEW"
	AuditActionVacancyChange     = "VACANCY_CHANGE"
	AuditActionCourseImport      = "COURSE_IMPORT"
)

// AuditLog is an append-only trail row for sensitive state changes.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
