package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReviewStatus captures the workflow state shared by proposals and
// modification requests. Approved and rejected are terminal.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ProposedAssignment is one member of a proposed teaching team.
type ProposedAssignment struct {
	TeacherID     *int64  `json:"teacher_id,omitempty"`
	TeacherName   string  `json:"teacher_name"`
	TeacherEmail  string  `json:"teacher_email"`
	IsCoordinator bool    `json:"is_coordinator"`
	Vol1Hours     float64 `json:"vol1_hours"`
	Vol2Hours     float64 `json:"vol2_hours"`
}

// ProposalData is the structured JSONB payload of a proposal.
type ProposalData struct {
	Assignments     []ProposedAssignment `json:"assignments"`
	TotalVol1       float64              `json:"total_vol1"`
	TotalVol2       float64              `json:"total_vol2"`
	AdditionalNotes string               `json:"additional_notes,omitempty"`
}

// Value implements driver.Valuer so the payload round-trips through a JSONB column.
func (d ProposalData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *ProposalData) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = ProposalData{}
		return nil
	default:
		return fmt.Errorf("unsupported proposal data type %T", src)
	}
}

// AssignmentProposal is a teaching-team proposal submitted for a vacant course.
type AssignmentProposal struct {
	ID             int64        `db:"id" json:"id"`
	CourseID       int64        `db:"course_id" json:"course_id"`
	SubmitterName  string       `db:"submitter_name" json:"submitter_name"`
	SubmitterEmail string       `db:"submitter_email" json:"submitter_email"`
	SubmissionDate time.Time    `db:"submission_date" json:"submission_date"`
	Status         ReviewStatus `db:"status" json:"status"`
	ProposalData   ProposalData `db:"proposal_data" json:"proposal_data"`
	AdminNotes     *string      `db:"admin_notes" json:"admin_notes,omitempty"`
	ValidatedAt    *time.Time   `db:"validated_at" json:"validated_at,omitempty"`
	ValidatedBy    *string      `db:"validated_by" json:"validated_by,omitempty"`

	// CourseStaffed hints that the target course is no longer vacant, so a
	// still-pending proposal is competing with an already approved sibling.
	CourseStaffed bool `db:"course_staffed" json:"course_staffed"`
}

// ProposalFilter constrains proposal listing queries.
type ProposalFilter struct {
	CourseID int64
	Status   ReviewStatus
}
