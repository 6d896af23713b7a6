package model

import (
	"context"
	"time"
)

// TimestampLayout is the local-time layout answered questions and study sessions are stamped with.
// Date bucketing relies on its "2006-01-02" prefix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// timestampLayoutWhole is used when the sub-second part is zero.
const timestampLayoutWhole = "2006-01-02T15:04:05"

// FormatTimestamp stamps t in local ISO-8601 with microseconds, leaving the
// fraction out when it is zero.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(timestampLayoutWhole)
	}
	return t.Format(TimestampLayout)
}

// DateLayout formats a calendar day.
const DateLayout = "2006-01-02"

// FilterAll disables a question filter.
const FilterAll = "All"

// User represents a registered user.
type User struct {
	ID           int64     `json:"-"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Question is a multiple-choice catalog entry.
type Question struct {
	ID         int64    `json:"id" validate:"gte=0"`
	Subject    string   `json:"subject" validate:"required"`
	Topic      string   `json:"topic" validate:"required"`
	Difficulty string   `json:"difficulty" validate:"required"`
	Question   string   `json:"question" validate:"required"`
	Options    []string `json:"options" validate:"min=2,dive,required"`
	Answer     string   `json:"answer" validate:"required"`
}

// QuestionFilter selects catalog questions. FilterAll or "" leaves a field unfiltered.
type QuestionFilter struct {
	Subject    string
	Topic      string
	Difficulty string
}

// AnsweredQuestion is one entry of a user's append-only answer log.
type AnsweredQuestion struct {
	QuestionID    int64  `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Timestamp     string `json:"timestamp"`
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
}

// StudySession records time spent studying a topic.
type StudySession struct {
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Duration int    `json:"duration"` // minutes
	Date     string `json:"date"`
}

// TopicCounter is the running correct/total tally for a topic. Correct never exceeds Total.
type TopicCounter struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns Correct/Total, or 0 when nothing was answered.
func (c TopicCounter) Accuracy() float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// TopicPerformance pairs a topic with its counter.
type TopicPerformance struct {
	Topic string `json:"topic"`
	TopicCounter
}

// UserProgress is the full per-user snapshot. PerformanceByTopic keeps first-answer order.
type UserProgress struct {
	AnsweredQuestions  []AnsweredQuestion `json:"answered_questions"`
	StudySessions      []StudySession     `json:"study_sessions"`
	PerformanceByTopic []TopicPerformance `json:"performance_by_topic"`
}

// Counter returns the counter for topic and whether it exists.
func (p *UserProgress) Counter(topic string) (TopicCounter, bool) {
	for _, tp := range p.PerformanceByTopic {
		if tp.Topic == topic {
			return tp.TopicCounter, true
		}
	}
	return TopicCounter{}, false
}

// Clone returns a deep copy so callers can mutate without touching the original snapshot.
func (p UserProgress) Clone() UserProgress {
	return UserProgress{
		AnsweredQuestions:  append([]AnsweredQuestion(nil), p.AnsweredQuestions...),
		StudySessions:      append([]StudySession(nil), p.StudySessions...),
		PerformanceByTopic: append([]TopicPerformance(nil), p.PerformanceByTopic...),
	}
}

// AnswerResult is returned to the caller after an answer submission.
type AnswerResult struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// PerformanceReport holds the aggregated accuracy statistics.
type PerformanceReport struct {
	OverallAccuracy        float64            `json:"overall_accuracy"`
	ByTopic                map[string]float64 `json:"by_topic"`
	ByDate                 map[string]float64 `json:"by_date"`
	AnsweredQuestionsCount int                `json:"answered_questions_count"`
}

// TopicAccuracy is a ranked topic entry.
type TopicAccuracy struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
}

// StudySummary is the recent-sessions view.
type StudySummary struct {
	Sessions       []StudySession `json:"sessions"`
	TotalStudyTime string         `json:"total_study_time"`
}

// ServeConfig holds runtime parameters set via CLI flags.
type ServeConfig struct {
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	SessionTTL    time.Duration // Lifetime of an auth session
	Lang          string
}
