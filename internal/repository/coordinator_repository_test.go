package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

func TestCoordinatorAdd(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoordinatorRepository(db)

	mock.ExpectQuery("INSERT INTO course_coordinators").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	coordinator := &models.CourseCoordinator{CourseID: 1, TeacherID: 9, Email: "coord@example.org"}
	err := repo.Add(context.Background(), coordinator)
	require.NoError(t, err)
	assert.Equal(t, int64(3), coordinator.ID)
	assert.False(t, coordinator.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinatorFindByCourseAndEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoordinatorRepository(db)

	mock.ExpectQuery("FROM course_coordinators WHERE course_id = \\$1 AND LOWER\\(email\\)").
		WithArgs(int64(1), "ghost@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "teacher_id", "email", "created_at"}))

	_, err := repo.FindByCourseAndEmail(context.Background(), 1, "ghost@example.org")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCoordinatorCreateValidation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoordinatorRepository(db)

	mock.ExpectQuery("INSERT INTO coordinator_validations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	validation := &models.CoordinatorValidation{CourseID: 1, CoordinatorID: 3}
	err := repo.CreateValidation(context.Background(), validation)
	require.NoError(t, err)
	assert.Equal(t, int64(5), validation.ID)
	assert.Equal(t, models.ValidationPending, validation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinatorDecide(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoordinatorRepository(db)

	mock.ExpectExec("UPDATE coordinator_validations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	comment := "distribution confirmed"
	err := repo.Decide(context.Background(), 5, models.ValidationValidated, &comment, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinatorDecideAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoordinatorRepository(db)

	mock.ExpectExec("UPDATE coordinator_validations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decide(context.Background(), 5, models.ValidationRejected, nil, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
