package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// CoordinatorRepository persists course coordinators and their validations.
type CoordinatorRepository struct {
	db *sqlx.DB
}

// NewCoordinatorRepository constructs the repository.
func NewCoordinatorRepository(db *sqlx.DB) *CoordinatorRepository {
	return &CoordinatorRepository{db: db}
}

// ListByCourse returns the coordinators registered for a course.
func (r *CoordinatorRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.CourseCoordinator, error) {
	const query = `SELECT id, course_id, teacher_id, email, created_at
		FROM course_coordinators WHERE course_id = $1 ORDER BY id ASC`
	var coordinators []models.CourseCoordinator
	if err := r.db.SelectContext(ctx, &coordinators, query, courseID); err != nil {
		return nil, fmt.Errorf("list coordinators: %w", err)
	}
	return coordinators, nil
}

// FindByCourseAndEmail resolves a coordinator registration, used to gate
// validation requests.
func (r *CoordinatorRepository) FindByCourseAndEmail(ctx context.Context, courseID int64, email string) (*models.CourseCoordinator, error) {
	const query = `SELECT id, course_id, teacher_id, email, created_at
		FROM course_coordinators WHERE course_id = $1 AND LOWER(email) = LOWER($2)`
	var coordinator models.CourseCoordinator
	if err := r.db.GetContext(ctx, &coordinator, query, courseID, email); err != nil {
		return nil, err
	}
	return &coordinator, nil
}

// Add registers a coordinator for a course.
func (r *CoordinatorRepository) Add(ctx context.Context, coordinator *models.CourseCoordinator) error {
	coordinator.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO course_coordinators (course_id, teacher_id, email, created_at)
		VALUES ($1, $2, LOWER($3), $4)
		ON CONFLICT (course_id, teacher_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		coordinator.CourseID, coordinator.TeacherID, coordinator.Email, coordinator.CreatedAt,
	).Scan(&coordinator.ID); err != nil {
		return fmt.Errorf("add coordinator: %w", err)
	}
	return nil
}

// CreateValidation opens a pending validation round for a coordinator.
func (r *CoordinatorRepository) CreateValidation(ctx context.Context, validation *models.CoordinatorValidation) error {
	validation.Status = models.ValidationPending
	validation.RequestedAt = time.Now().UTC()
	const query = `INSERT INTO coordinator_validations (course_id, coordinator_id, status, requested_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		validation.CourseID, validation.CoordinatorID, validation.Status, validation.RequestedAt,
	).Scan(&validation.ID); err != nil {
		return fmt.Errorf("create validation: %w", err)
	}
	return nil
}

// ListValidationsByCourse returns validation rounds for a course, newest first.
func (r *CoordinatorRepository) ListValidationsByCourse(ctx context.Context, courseID int64) ([]models.CoordinatorValidation, error) {
	const query = `SELECT id, course_id, coordinator_id, status, comment, requested_at, decided_at
		FROM coordinator_validations WHERE course_id = $1 ORDER BY requested_at DESC, id DESC`
	var validations []models.CoordinatorValidation
	if err := r.db.SelectContext(ctx, &validations, query, courseID); err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	return validations, nil
}

// GetValidation fetches one validation round.
func (r *CoordinatorRepository) GetValidation(ctx context.Context, id int64) (*models.CoordinatorValidation, error) {
	const query = `SELECT id, course_id, coordinator_id, status, comment, requested_at, decided_at
		FROM coordinator_validations WHERE id = $1`
	var validation models.CoordinatorValidation
	if err := r.db.GetContext(ctx, &validation, query, id); err != nil {
		return nil, err
	}
	return &validation, nil
}

// Decide records the outcome of a pending validation round.
func (r *CoordinatorRepository) Decide(ctx context.Context, id int64, status models.ValidationStatus, comment *string, decidedAt time.Time) error {
	const query = `UPDATE coordinator_validations
		SET status = $1, comment = $2, decided_at = $3
		WHERE id = $4 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, comment, decidedAt, id)
	if err != nil {
		return fmt.Errorf("decide validation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decided validation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
