package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

func proposalRow(id int64, status models.ReviewStatus, staffed bool) *sqlmock.Rows {
	payload, _ := json.Marshal(models.ProposalData{
		Assignments: []models.ProposedAssignment{
			{TeacherName: "Jane Doe", TeacherEmail: "jane@example.org", IsCoordinator: true, Vol1Hours: 24},
		},
		TotalVol1: 24,
	})
	return sqlmock.NewRows([]string{
		"id", "course_id", "submitter_name", "submitter_email", "submission_date",
		"status", "proposal_data", "admin_notes", "validated_at", "validated_by",
		"course_staffed",
	}).AddRow(id, int64(1), "Jane Doe", "jane@example.org", time.Now(), status, payload, nil, nil, nil, staffed)
}

func TestProposalCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("INSERT INTO assignment_proposals").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	proposal := &models.AssignmentProposal{
		CourseID:       1,
		SubmitterName:  "Jane Doe",
		SubmitterEmail: "jane@example.org",
		ProposalData:   models.ProposalData{TotalVol1: 24},
	}
	err := repo.Create(context.Background(), proposal)
	require.NoError(t, err)
	assert.Equal(t, int64(7), proposal.ID)
	assert.Equal(t, models.ReviewStatusPending, proposal.Status)
	assert.False(t, proposal.SubmissionDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM assignment_proposals p").
		WithArgs(int64(7)).
		WillReturnRows(proposalRow(7, models.ReviewStatusPending, true))

	proposal, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), proposal.ID)
	assert.Equal(t, 24.0, proposal.ProposalData.TotalVol1)
	assert.True(t, proposal.CourseStaffed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM assignment_proposals p").
		WithArgs(models.ReviewStatusPending).
		WillReturnRows(proposalRow(7, models.ReviewStatusPending, false))

	proposals, err := repo.List(context.Background(), models.ProposalFilter{Status: models.ReviewStatusPending})
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, models.ReviewStatusPending, proposals[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalReview(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assignment_proposals").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	notes := "looks good"
	err = repo.Review(context.Background(), tx, 7, models.ReviewStatusApproved, &notes, "admin@example.org", time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalReviewAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assignment_proposals").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.Review(context.Background(), tx, 7, models.ReviewStatusRejected, nil, "admin@example.org", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
