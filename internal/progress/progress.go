// Package progress records answers and study sessions against a user's progress snapshot.
//
// All functions are pure: they take a snapshot and return an updated copy, leaving
// persistence to the caller.
package progress

import (
	"fmt"
	"time"

	"github.com/pavelanni/studytracker/internal/model"
)

// recentSessions is how many study sessions Summary returns.
const recentSessions = 10

// QuestionLookup resolves a question by ID. Implementations return model.ErrNotFound
// for unknown IDs.
type QuestionLookup interface {
	Get(id int64) (model.Question, error)
}

// Recorder applies answer submissions and study sessions to snapshots.
type Recorder struct {
	questions QuestionLookup
	now       func() time.Time
}

// NewRecorder creates a Recorder. A nil clock defaults to time.Now.
func NewRecorder(q QuestionLookup, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{questions: q, now: now}
}

// Submit grades answer against the canonical answer of questionID, appends the
// answer to the log and bumps the topic counter. The input snapshot is not modified.
func (r *Recorder) Submit(snapshot model.UserProgress, questionID int64, answer string) (model.UserProgress, model.AnswerResult, error) {
	q, err := r.questions.Get(questionID)
	if err != nil {
		return snapshot, model.AnswerResult{}, fmt.Errorf("question %d: %w", questionID, err)
	}

	isCorrect := answer == q.Answer
	updated := snapshot.Clone()
	updated.AnsweredQuestions = append(updated.AnsweredQuestions, model.AnsweredQuestion{
		QuestionID:    q.ID,
		UserAnswer:    answer,
		CorrectAnswer: q.Answer,
		IsCorrect:     isCorrect,
		Timestamp:     model.FormatTimestamp(r.now()),
		Subject:       q.Subject,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
	})
	bumpCounter(&updated, q.Topic, isCorrect)

	return updated, model.AnswerResult{IsCorrect: isCorrect, CorrectAnswer: q.Answer}, nil
}

func bumpCounter(p *model.UserProgress, topic string, correct bool) {
	for i := range p.PerformanceByTopic {
		if p.PerformanceByTopic[i].Topic != topic {
			continue
		}
		p.PerformanceByTopic[i].Total++
		if correct {
			p.PerformanceByTopic[i].Correct++
		}
		return
	}
	tp := model.TopicPerformance{Topic: topic, TopicCounter: model.TopicCounter{Total: 1}}
	if correct {
		tp.Correct = 1
	}
	p.PerformanceByTopic = append(p.PerformanceByTopic, tp)
}

// RecordSession appends a study session stamped with the current time.
func (r *Recorder) RecordSession(snapshot model.UserProgress, subject, topic string, minutes int) (model.UserProgress, error) {
	if minutes < 0 {
		return snapshot, &model.ValidationError{Fields: []string{"duration"}}
	}
	updated := snapshot.Clone()
	updated.StudySessions = append(updated.StudySessions, model.StudySession{
		Subject:  subject,
		Topic:    topic,
		Duration: minutes,
		Date:     model.FormatTimestamp(r.now()),
	})
	return updated, nil
}

// Summary returns the most recent study sessions in recorded order together with the
// total time studied across all sessions, formatted as "{H}h {M}m".
func Summary(snapshot model.UserProgress) model.StudySummary {
	total := 0
	for _, s := range snapshot.StudySessions {
		total += s.Duration
	}

	recent := snapshot.StudySessions
	if len(recent) > recentSessions {
		recent = recent[len(recent)-recentSessions:]
	}
	sessions := make([]model.StudySession, len(recent))
	copy(sessions, recent)

	return model.StudySummary{
		Sessions:       sessions,
		TotalStudyTime: fmt.Sprintf("%dh %dm", total/60, total%60),
	}
}
