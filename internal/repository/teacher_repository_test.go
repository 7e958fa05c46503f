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

func teacherRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "status", "created_at", "updated_at"})
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(id, "jane@example.org", "Jane", "Doe", "permanent", now, now)
	}
	return rows
}

func TestTeacherFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("Jane@Example.org").
		WillReturnRows(teacherRows(9))

	teacher, err := repo.FindByEmail(context.Background(), "Jane@Example.org")
	require.NoError(t, err)
	assert.Equal(t, int64(9), teacher.ID)
	assert.Equal(t, "jane@example.org", teacher.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("ghost@example.org").
		WillReturnRows(teacherRows())

	_, err := repo.FindByEmail(context.Background(), "ghost@example.org")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTeacherUpsertByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("INSERT INTO teachers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	teacher := &models.Teacher{Email: "jane@example.org", FirstName: "Jane", LastName: "Doe"}
	err := repo.UpsertByEmail(context.Background(), nil, teacher)
	require.NoError(t, err)
	assert.Equal(t, int64(9), teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherUpsertByEmailInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teachers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	teacher := &models.Teacher{Email: "new@example.org", FirstName: "New", LastName: "Hire"}
	err = repo.UpsertByEmail(context.Background(), tx, teacher)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(12), teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE 1=1 AND \\(LOWER\\(first_name\\)").
		WithArgs("%doe%").
		WillReturnRows(teacherRows(9))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM teachers").
		WithArgs("%doe%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{Search: "Doe"})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
