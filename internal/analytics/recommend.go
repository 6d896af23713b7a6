package analytics

import (
	"math"
	"sort"

	"github.com/pavelanni/studytracker/internal/model"
)

// MaxRecommendations is how many weak topics Recommend suggests.
const MaxRecommendations = 3

// Phrasebook renders recommendation text. The i18n package provides a localized one.
type Phrasebook interface {
	// Practice suggests more work on topic, with accuracy as a whole percent.
	Practice(topic string, percent int) string
	// StartBasic is shown when the user has not answered anything.
	StartBasic() string
	// KeepPracticing is shown when no topic has a usable counter.
	KeepPracticing() string
}

// Rank returns every topic with at least one answer, weakest first. Ties are broken
// by topic name so the order does not depend on storage order.
func Rank(snapshot model.UserProgress) []model.TopicAccuracy {
	ranked := make([]model.TopicAccuracy, 0, len(snapshot.PerformanceByTopic))
	for _, tp := range snapshot.PerformanceByTopic {
		if tp.Total > 0 {
			ranked = append(ranked, model.TopicAccuracy{Topic: tp.Topic, Accuracy: tp.Accuracy()})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Accuracy != ranked[j].Accuracy {
			return ranked[i].Accuracy < ranked[j].Accuracy
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	return ranked
}

// Weakest returns at most n topics from Rank.
func Weakest(snapshot model.UserProgress, n int) []model.TopicAccuracy {
	ranked := Rank(snapshot)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Recommend returns up to MaxRecommendations suggestions for the weakest topics.
// It never returns an empty list.
func Recommend(snapshot model.UserProgress, pb Phrasebook) []string {
	if pb == nil {
		pb = English
	}
	if len(snapshot.PerformanceByTopic) == 0 {
		return []string{pb.StartBasic()}
	}

	weakest := Weakest(snapshot, MaxRecommendations)
	if len(weakest) == 0 {
		return []string{pb.KeepPracticing()}
	}
	recs := make([]string, 0, len(weakest))
	for _, ta := range weakest {
		recs = append(recs, pb.Practice(ta.Topic, Percent(ta.Accuracy)))
	}
	return recs
}

// Percent converts a [0,1] ratio to a whole percent, rounding halves to even.
func Percent(ratio float64) int {
	return int(math.RoundToEven(ratio * 100))
}
