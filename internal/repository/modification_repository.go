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

const modificationColumns = `id, course_id, requester_name, requester_email, modification_type,
	description, status, admin_notes, created_at, reviewed_at, reviewed_by`

// ModificationRepository persists course modification requests.
type ModificationRepository struct {
	db *sqlx.DB
}

// NewModificationRepository constructs the repository.
func NewModificationRepository(db *sqlx.DB) *ModificationRepository {
	return &ModificationRepository{db: db}
}

// Create inserts a new pending modification request.
func (r *ModificationRepository) Create(ctx context.Context, req *models.ModificationRequest) error {
	req.Status = models.ReviewStatusPending
	req.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO modification_requests (course_id, requester_name, requester_email,
		modification_type, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		req.CourseID, req.RequesterName, req.RequesterEmail,
		req.ModificationType, req.Description, req.Status, req.CreatedAt,
	).Scan(&req.ID); err != nil {
		return fmt.Errorf("create modification request: %w", err)
	}
	return nil
}

// GetByID fetches one modification request.
func (r *ModificationRepository) GetByID(ctx context.Context, id int64) (*models.ModificationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM modification_requests WHERE id = $1`, modificationColumns)
	var req models.ModificationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns modification requests matching the filter, newest first.
func (r *ModificationRepository) List(ctx context.Context, filter models.ModificationFilter) ([]models.ModificationRequest, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("modification_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	query := fmt.Sprintf(`SELECT %s FROM modification_requests WHERE %s ORDER BY created_at DESC, id DESC`,
		modificationColumns, strings.Join(conditions, " AND "))
	var requests []models.ModificationRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list modification requests: %w", err)
	}
	return requests, nil
}

// Review moves a pending request to a terminal state inside tx, guarded at SQL
// level against concurrent reviews.
func (r *ModificationRepository) Review(ctx context.Context, tx *sqlx.Tx, id int64, status models.ReviewStatus, adminNotes *string, reviewer string, reviewedAt time.Time) error {
	const query = `UPDATE modification_requests
		SET status = $1, admin_notes = $2, reviewed_at = $3, reviewed_by = $4
		WHERE id = $5 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, query, status, adminNotes, reviewedAt, reviewer, id)
	if err != nil {
		return fmt.Errorf("review modification request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reviewed request rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
