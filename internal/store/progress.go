package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/studytracker/internal/model"
)

// errShrunkLog is returned when an update tries to remove entries from an append-only log.
var errShrunkLog = errors.New("progress logs are append-only")

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// GetProgress returns the user's progress snapshot. A user with no recorded
// activity gets an empty snapshot.
func (s *Store) GetProgress(ctx context.Context, userID int64) (model.UserProgress, error) {
	return loadProgress(ctx, s.db, userID)
}

// UpdateProgress reads the user's snapshot, lets fn modify it and persists the
// result in one transaction. Answers and study sessions appended by fn are inserted
// and every topic counter is written back. If fn or any write fails, or ctx is
// cancelled, nothing is stored.
func (s *Store) UpdateProgress(ctx context.Context, userID int64, fn func(*model.UserProgress) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	before, err := loadProgress(ctx, tx, userID)
	if err != nil {
		return err
	}
	after := before.Clone()
	if err := fn(&after); err != nil {
		return err
	}

	if len(after.AnsweredQuestions) < len(before.AnsweredQuestions) ||
		len(after.StudySessions) < len(before.StudySessions) {
		return errShrunkLog
	}

	for _, aq := range after.AnsweredQuestions[len(before.AnsweredQuestions):] {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO answered_questions
			 (user_id, question_id, user_answer, correct_answer, is_correct, answered_at, subject, topic, difficulty)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, aq.QuestionID, aq.UserAnswer, aq.CorrectAnswer, aq.IsCorrect, aq.Timestamp,
			aq.Subject, aq.Topic, aq.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("insert answered question: %w", err)
		}
	}

	for _, ss := range after.StudySessions[len(before.StudySessions):] {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO study_sessions (user_id, subject, topic, duration, studied_at) VALUES (?, ?, ?, ?, ?)`,
			userID, ss.Subject, ss.Topic, ss.Duration, ss.Date,
		)
		if err != nil {
			return fmt.Errorf("insert study session: %w", err)
		}
	}

	for _, tp := range after.PerformanceByTopic {
		if old, ok := before.Counter(tp.Topic); ok && old == tp.TopicCounter {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO topic_performance (user_id, topic, correct, total) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, topic) DO UPDATE SET correct = excluded.correct, total = excluded.total`,
			userID, tp.Topic, tp.Correct, tp.Total,
		)
		if err != nil {
			return fmt.Errorf("upsert topic %q: %w", tp.Topic, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func loadProgress(ctx context.Context, q querier, userID int64) (model.UserProgress, error) {
	var p model.UserProgress
	var err error
	if p.AnsweredQuestions, err = loadAnswers(ctx, q, userID); err != nil {
		return p, fmt.Errorf("load answered questions: %w", err)
	}
	if p.StudySessions, err = loadStudySessions(ctx, q, userID); err != nil {
		return p, fmt.Errorf("load study sessions: %w", err)
	}
	if p.PerformanceByTopic, err = loadTopicPerformance(ctx, q, userID); err != nil {
		return p, fmt.Errorf("load topic performance: %w", err)
	}
	return p, nil
}

func loadAnswers(ctx context.Context, q querier, userID int64) ([]model.AnsweredQuestion, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT question_id, user_answer, correct_answer, is_correct, answered_at, subject, topic, difficulty
		 FROM answered_questions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.AnsweredQuestion
	for rows.Next() {
		var aq model.AnsweredQuestion
		if err := rows.Scan(&aq.QuestionID, &aq.UserAnswer, &aq.CorrectAnswer, &aq.IsCorrect, &aq.Timestamp,
			&aq.Subject, &aq.Topic, &aq.Difficulty); err != nil {
			return nil, err
		}
		answers = append(answers, aq)
	}
	return answers, rows.Err()
}

func loadStudySessions(ctx context.Context, q querier, userID int64) ([]model.StudySession, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT subject, topic, duration, studied_at FROM study_sessions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.StudySession
	for rows.Next() {
		var ss model.StudySession
		if err := rows.Scan(&ss.Subject, &ss.Topic, &ss.Duration, &ss.Date); err != nil {
			return nil, err
		}
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

func loadTopicPerformance(ctx context.Context, q querier, userID int64) ([]model.TopicPerformance, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT topic, correct, total FROM topic_performance WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perf []model.TopicPerformance
	for rows.Next() {
		var tp model.TopicPerformance
		if err := rows.Scan(&tp.Topic, &tp.Correct, &tp.Total); err != nil {
			return nil, err
		}
		perf = append(perf, tp)
	}
	return perf, rows.Err()
}

// ProgressForUsername returns a user and their snapshot, or model.ErrNotFound.
func (s *Store) ProgressForUsername(ctx context.Context, username string) (*model.User, model.UserProgress, error) {
	u, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, model.UserProgress{}, err
	}
	if u == nil {
		return nil, model.UserProgress{}, fmt.Errorf("user %q: %w", username, model.ErrNotFound)
	}
	p, err := s.GetProgress(ctx, u.ID)
	return u, p, err
}
