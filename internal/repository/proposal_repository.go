package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

const proposalColumns = `p.id, p.course_id, p.submitter_name, p.submitter_email, p.submission_date,
	p.status, p.proposal_data, p.admin_notes, p.validated_at, p.validated_by,
	(p.status = 'pending' AND NOT c.vacant) AS course_staffed`

// ProposalRepository persists teaching-team proposals.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs the repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a new pending proposal.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.AssignmentProposal) error {
	proposal.Status = models.ReviewStatusPending
	if proposal.SubmissionDate.IsZero() {
		proposal.SubmissionDate = time.Now().UTC()
	}
	const query = `INSERT INTO assignment_proposals (course_id, submitter_name, submitter_email,
		submission_date, status, proposal_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		proposal.CourseID, proposal.SubmitterName, proposal.SubmitterEmail,
		proposal.SubmissionDate, proposal.Status, proposal.ProposalData,
	).Scan(&proposal.ID); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// GetByID fetches one proposal with the staffed hint resolved.
func (r *ProposalRepository) GetByID(ctx context.Context, id int64) (*models.AssignmentProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignment_proposals p
		JOIN courses c ON c.id = p.course_id
		WHERE p.id = $1`, proposalColumns)
	var proposal models.AssignmentProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// List returns proposals matching the filter, newest first.
func (r *ProposalRepository) List(ctx context.Context, filter models.ProposalFilter) ([]models.AssignmentProposal, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("p.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf(`SELECT %s FROM assignment_proposals p
		JOIN courses c ON c.id = p.course_id
		WHERE %s ORDER BY p.submission_date DESC, p.id DESC`,
		proposalColumns, strings.Join(conditions, " AND "))
	var proposals []models.AssignmentProposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// Review moves a pending proposal to a terminal state inside tx. The pending
// guard repeats at SQL level so a concurrent review surfaces as sql.ErrNoRows
// rather than silently overwriting the first decision.
func (r *ProposalRepository) Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error {
	const query = `UPDATE assignment_proposals
		SET status = $1, admin_notes = $2, validated_at = $3, validated_by = $4
		WHERE id = $5 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, query, status, adminNotes, reviewedAt, reviewer, id)
	if err != nil {
		return fmt.Errorf("review proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reviewed proposal rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
