package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// fetchBatchSize caps one listing round trip. The full collection is always
// reassembled before any filtering happens upstream.
const fetchBatchSize = 1000

const courseColumns = `id, code, title, faculty, subcategory, school, academic_year,
	volume_total_vol1, volume_total_vol2, vol1_total, vol2_total, vacant, version, created_at, updated_at`

// CourseRepository persists course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Transact runs fn inside a transaction, rolling back on error.
func (r *CourseRepository) Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListAll fetches the complete course collection in id-ordered batches.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	courses := make([]models.Course, 0, fetchBatchSize)
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id > $1 ORDER BY id ASC LIMIT %d`, courseColumns, fetchBatchSize)

	var lastID int64
	for {
		var batch []models.Course
		if err := r.db.SelectContext(ctx, &batch, query, lastID); err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		courses = append(courses, batch...)
		if len(batch) < fetchBatchSize {
			return courses, nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

// FindByID fetches a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode fetches a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE code = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (code, title, faculty, subcategory, school, academic_year,
		volume_total_vol1, volume_total_vol2, vol1_total, vol2_total, vacant, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
		RETURNING id, version`
	if err := r.db.QueryRowxContext(ctx, query,
		course.Code, course.Title, course.Faculty, course.Subcategory, course.School,
		course.AcademicYear, course.VolumeTotalVol1, course.VolumeTotalVol2,
		course.Vol1Total, course.Vol2Total, course.Vacant, course.CreatedAt, course.UpdatedAt,
	).Scan(&course.ID, &course.Version); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course using compare-and-swap on the version
// column. A stale version surfaces as sql.ErrNoRows.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = $1, faculty = $2, subcategory = $3, school = $4,
		academic_year = $5, volume_total_vol1 = $6, volume_total_vol2 = $7, vol1_total = $8,
		vol2_total = $9, vacant = $10, version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13`
	result, err := r.db.ExecContext(ctx, query,
		course.Title, course.Faculty, course.Subcategory, course.School, course.AcademicYear,
		course.VolumeTotalVol1, course.VolumeTotalVol2, course.Vol1Total, course.Vol2Total,
		course.Vacant, course.UpdatedAt, course.ID, course.Version,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	course.Version++
	return nil
}

// SetVacant flips the vacancy flag inside tx with compare-and-swap. A lost race
// (stale version) surfaces as sql.ErrNoRows so the caller can report a conflict
// instead of silently letting the last write win.
func (r *CourseRepository) SetVacant(ctx context.Context, tx *sqlx.Tx, courseID int64, vacant bool, version int64) error {
	const query = `UPDATE courses SET vacant = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`
	result, err := tx.ExecContext(ctx, query, vacant, time.Now().UTC(), courseID, version)
	if err != nil {
		return fmt.Errorf("set course vacancy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check vacancy rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertByCode inserts or refreshes a course keyed by its code. Used by the
// spreadsheet import; the vacancy flag of existing rows is left untouched.
func (r *CourseRepository) UpsertByCode(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	const query = `INSERT INTO courses (code, title, faculty, subcategory, school, academic_year,
		volume_total_vol1, volume_total_vol2, vol1_total, vol2_total, vacant, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $12)
		ON CONFLICT (code) DO UPDATE SET
			title = EXCLUDED.title,
			faculty = EXCLUDED.faculty,
			subcategory = EXCLUDED.subcategory,
			school = EXCLUDED.school,
			academic_year = EXCLUDED.academic_year,
			volume_total_vol1 = EXCLUDED.volume_total_vol1,
			volume_total_vol2 = EXCLUDED.volume_total_vol2,
			vol1_total = EXCLUDED.vol1_total,
			vol2_total = EXCLUDED.vol2_total,
			version = courses.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING id, vacant, version`
	if err := r.db.QueryRowxContext(ctx, query,
		course.Code, course.Title, course.Faculty, course.Subcategory, course.School,
		course.AcademicYear, course.VolumeTotalVol1, course.VolumeTotalVol2,
		course.Vol1Total, course.Vol2Total, course.Vacant, now,
	).Scan(&course.ID, &course.Vacant, &course.Version); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}
