package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func courseRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "code", "title", "faculty", "subcategory", "school", "academic_year",
		"volume_total_vol1", "volume_total_vol2", "vol1_total", "vol2_total",
		"vacant", "version", "created_at", "updated_at",
	})
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(id, "MATH101", "Calculus", "Science", "", nil, "2025-2026", nil, nil, 24.0, 12.0, true, 1, now, now)
	}
	return rows
}

func TestCourseFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(courseRows(1))

	course, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "MATH101", course.Code)
	assert.True(t, course.Vacant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id = \\$1").
		WithArgs(int64(404)).
		WillReturnRows(courseRows())

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseListAllSingleBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id > \\$1 ORDER BY id ASC").
		WithArgs(int64(0)).
		WillReturnRows(courseRows(1, 2, 3))

	courses, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpdateCAS(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{ID: 1, Title: "Calculus I", AcademicYear: "2025-2026", Version: 2}
	err := repo.Update(context.Background(), course)
	require.NoError(t, err)
	assert.Equal(t, int64(3), course.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	course := &models.Course{ID: 1, Title: "Calculus I", AcademicYear: "2025-2026", Version: 1}
	err := repo.Update(context.Background(), course)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, int64(1), course.Version)
}

func TestCourseSetVacantStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE courses SET vacant").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.SetVacant(context.Background(), tx, 1, false, 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseUpsertByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").
		WillReturnRows(sqlmock.NewRows([]string{"id", "vacant", "version"}).AddRow(int64(42), true, int64(3)))

	course := &models.Course{Code: "MATH101", Title: "Calculus", AcademicYear: "2025-2026"}
	err := repo.UpsertByCode(context.Background(), course)
	require.NoError(t, err)
	assert.Equal(t, int64(42), course.ID)
	// The upsert never touches an existing row's vacancy flag.
	assert.True(t, course.Vacant)
	assert.Equal(t, int64(3), course.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
