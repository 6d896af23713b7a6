// Package analytics turns a user's answer log into accuracy statistics and
// weakest-topic recommendations.
package analytics

import (
	"strings"
	"time"

	"github.com/pavelanni/studytracker/internal/model"
)

// windowDays is the length of the trailing per-date window.
const windowDays = 7

// Aggregate computes overall, per-topic and trailing seven-day accuracy for snapshot.
// Days are matched against the local-time date prefix of each answer's timestamp.
func Aggregate(snapshot model.UserProgress, now time.Time) model.PerformanceReport {
	report := model.PerformanceReport{
		ByTopic: map[string]float64{},
		ByDate:  map[string]float64{},
	}
	answered := snapshot.AnsweredQuestions
	if len(answered) == 0 {
		return report
	}

	report.OverallAccuracy = accuracy(answered)
	report.AnsweredQuestionsCount = len(answered)

	for _, tp := range snapshot.PerformanceByTopic {
		if tp.Total > 0 {
			report.ByTopic[tp.Topic] = tp.Accuracy()
		}
	}

	for i := 0; i < windowDays; i++ {
		day := now.AddDate(0, 0, -i).Format(model.DateLayout)
		var dayAnswers []model.AnsweredQuestion
		for _, aq := range answered {
			if strings.HasPrefix(aq.Timestamp, day) {
				dayAnswers = append(dayAnswers, aq)
			}
		}
		if len(dayAnswers) > 0 {
			report.ByDate[day] = accuracy(dayAnswers)
		}
	}

	return report
}

func accuracy(answers []model.AnsweredQuestion) float64 {
	if len(answers) == 0 {
		return 0
	}
	correct := 0
	for _, aq := range answers {
		if aq.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(answers))
}
