package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// TeacherRepository persists teaching staff records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT id, email, first_name, last_name, status, created_at, updated_at
		FROM teachers WHERE %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d`,
		where, size, (page-1)*size)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM teachers WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByEmail fetches a teacher by the natural dedup key.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	const query = `SELECT id, email, first_name, last_name, status, created_at, updated_at
		FROM teachers WHERE LOWER(email) = LOWER($1)`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// UpsertByEmail inserts or refreshes a teacher keyed by email. Used during
// imports and proposal approvals, within the caller's transaction when given.
func (r *TeacherRepository) UpsertByEmail(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	now := time.Now().UTC()
	const query = `INSERT INTO teachers (email, first_name, last_name, status, created_at, updated_at)
		VALUES (LOWER($1), $2, $3, $4, $5, $5)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			status = CASE WHEN EXCLUDED.status <> '' THEN EXCLUDED.status ELSE teachers.status END,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	row := r.queryRow(ctx, tx, query,
		teacher.Email, teacher.FirstName, teacher.LastName, teacher.Status, now)
	if err := row.Scan(&teacher.ID); err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}

// ListStatuses returns the configured teacher status labels in display order.
func (r *TeacherRepository) ListStatuses(ctx context.Context) ([]models.TeacherStatus, error) {
	const query = `SELECT id, label, sort_order, created_at FROM teacher_statuses ORDER BY sort_order ASC, label ASC`
	var statuses []models.TeacherStatus
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list teacher statuses: %w", err)
	}
	return statuses, nil
}

func (r *TeacherRepository) queryRow(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) *sqlx.Row {
	if tx != nil {
		return tx.QueryRowxContext(ctx, query, args...)
	}
	return r.db.QueryRowxContext(ctx, query, args...)
}
