package dto

import "github.com/noah-isme/course-vacancy-api/internal/models"

// ProposedAssignmentRequest is one team member in a proposal payload.
type ProposedAssignmentRequest struct {
	TeacherName   string  `json:"teacher_name" validate:"required"`
	TeacherEmail  string  `json:"teacher_email" validate:"required,email"`
	IsCoordinator bool    `json:"is_coordinator"`
	Vol1Hours     float64 `json:"vol1_hours" validate:"gte=0"`
	Vol2Hours     float64 `json:"vol2_hours" validate:"gte=0"`
}

// SubmitProposalRequest is the payload for a teaching-team proposal.
type SubmitProposalRequest struct {
	CourseID        int64                       `json:"course_id" validate:"required"`
	SubmitterName   string                      `json:"submitter_name" validate:"required"`
	SubmitterEmail  string                      `json:"submitter_email" validate:"required,email"`
	Assignments     []ProposedAssignmentRequest `json:"assignments" validate:"required,min=1,dive"`
	AdditionalNotes string                      `json:"additional_notes"`
}

// SubmitModificationRequest is the payload for a modification request.
type SubmitModificationRequest struct {
	CourseID         int64                   `json:"course_id" validate:"required"`
	RequesterName    string                  `json:"requester_name" validate:"required"`
	RequesterEmail   string                  `json:"requester_email" validate:"required,email"`
	ModificationType models.ModificationType `json:"modification_type" validate:"required"`
	Description      string                  `json:"description" validate:"required"`
}

// ReviewRequest carries the admin decision payload for approve/reject routes.
type ReviewRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// DecideValidationRequest records a coordinator's validation outcome.
type DecideValidationRequest struct {
	Status  models.ValidationStatus `json:"status" validate:"required"`
	Comment string                  `json:"comment"`
}

// RequestValidationRequest opens a validation round for a course coordinator.
type RequestValidationRequest struct {
	CoordinatorEmail string `json:"coordinator_email" validate:"required,email"`
}
