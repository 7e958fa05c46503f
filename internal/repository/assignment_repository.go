package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

const assignmentColumns = `a.id, a.course_id, a.teacher_id, a.source, a.vol1_hours, a.vol2_hours,
	a.is_coordinator, a.assignment_type, a.validated_by_coord, a.faculty, a.created_at,
	t.first_name AS teacher_first_name, t.last_name AS teacher_last_name, t.email AS teacher_email`

// AssignmentRepository persists hour attribution rows. Both historical sources
// live in one table discriminated by the source column.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByCourse returns all attribution rows for one course, coordinators first.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments a
		LEFT JOIN teachers t ON t.id = a.teacher_id
		WHERE a.course_id = $1
		ORDER BY a.is_coordinator DESC, a.id ASC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByCourses returns attribution rows for many courses in one round trip,
// keyed by course id. Courses without rows are absent from the map.
func (r *AssignmentRepository) ListByCourses(ctx context.Context, courseIDs []int64) (map[int64][]models.Assignment, error) {
	if len(courseIDs) == 0 {
		return map[int64][]models.Assignment{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM assignments a
		LEFT JOIN teachers t ON t.id = a.teacher_id
		WHERE a.course_id = ANY($1)
		ORDER BY a.course_id ASC, a.is_coordinator DESC, a.id ASC`, assignmentColumns)
	var rows []models.Assignment
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list assignments by courses: %w", err)
	}
	byCourse := make(map[int64][]models.Assignment, len(courseIDs))
	for _, row := range rows {
		byCourse[row.CourseID] = append(byCourse[row.CourseID], row)
	}
	return byCourse, nil
}

// Create inserts a single attribution row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.CreatedAt = time.Now().UTC()
	if assignment.Source == "" {
		assignment.Source = models.SourceHourAttribution
	}
	const query = `INSERT INTO assignments (course_id, teacher_id, source, vol1_hours, vol2_hours,
		is_coordinator, assignment_type, validated_by_coord, faculty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		assignment.CourseID, assignment.TeacherID, assignment.Source,
		assignment.Vol1Hours, assignment.Vol2Hours, assignment.IsCoordinator,
		assignment.AssignmentType, assignment.ValidatedByCoord, assignment.Faculty,
		assignment.CreatedAt,
	).Scan(&assignment.ID); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// ReplaceForCourse swaps the complete attribution set of a course inside tx.
// Replace, not merge: leftovers from a prior team would double count against
// the volume aggregation.
func (r *AssignmentRepository) ReplaceForCourse(ctx context.Context, tx *sqlx.Tx, courseID int64, assignments []models.Assignment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete prior assignments: %w", err)
	}
	const query = `INSERT INTO assignments (course_id, teacher_id, source, vol1_hours, vol2_hours,
		is_coordinator, assignment_type, validated_by_coord, faculty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now().UTC()
	for i := range assignments {
		a := &assignments[i]
		a.CourseID = courseID
		if a.Source == "" {
			a.Source = models.SourceHourAttribution
		}
		a.CreatedAt = now
		if _, err := tx.ExecContext(ctx, query,
			a.CourseID, a.TeacherID, a.Source, a.Vol1Hours, a.Vol2Hours,
			a.IsCoordinator, a.AssignmentType, a.ValidatedByCoord, a.Faculty, a.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}
