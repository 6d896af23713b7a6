package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studytracker/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func expectEmptySnapshot(mock sqlmock.Sqlmock, userID int64) {
	mock.ExpectQuery(`FROM answered_questions`).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "user_answer", "correct_answer", "is_correct",
			"answered_at", "subject", "topic", "difficulty"}))
	mock.ExpectQuery(`FROM study_sessions`).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "topic", "duration", "studied_at"}))
	mock.ExpectQuery(`FROM topic_performance`).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"topic", "correct", "total"}))
}

func TestUpdateProgressWriteFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectEmptySnapshot(mock, 7)
	mock.ExpectExec(`INSERT INTO answered_questions`).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.UpdateProgress(context.Background(), 7, func(p *model.UserProgress) error {
		p.AnsweredQuestions = append(p.AnsweredQuestions, model.AnsweredQuestion{QuestionID: 1, Topic: "Algebra"})
		p.PerformanceByTopic = append(p.PerformanceByTopic, model.TopicPerformance{Topic: "Algebra", TopicCounter: model.TopicCounter{Total: 1}})
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProgressBeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	called := false
	err := s.UpdateProgress(context.Background(), 1, func(*model.UserProgress) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProgressReadFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`FROM answered_questions`).WillReturnError(errors.New("unreachable"))

	_, err := s.GetProgress(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load answered questions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProgressCommitsChangedCountersOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM answered_questions`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "user_answer", "correct_answer", "is_correct",
			"answered_at", "subject", "topic", "difficulty"}))
	mock.ExpectQuery(`FROM study_sessions`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "topic", "duration", "studied_at"}))
	mock.ExpectQuery(`FROM topic_performance`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"topic", "correct", "total"}).
			AddRow("Physics", 1, 2).
			AddRow("Algebra", 0, 1))
	mock.ExpectExec(`INSERT INTO topic_performance`).WithArgs(int64(2), "Algebra", 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpdateProgress(context.Background(), 2, func(p *model.UserProgress) error {
		p.PerformanceByTopic[1].Correct++
		p.PerformanceByTopic[1].Total++
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
