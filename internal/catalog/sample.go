package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pavelanni/studytracker/internal/model"
)

// SampleSize is the number of questions in the built-in sample bank.
const SampleSize = 100

var optionLabels = []string{"A", "B", "C", "D"}

// SampleQuestions generates the built-in bank: IDs 1-100 split across Math
// (Algebra, Geometry), Science (Physics, Chemistry) and History (World, US), with
// Easy/Medium/Hard difficulty bands. Only the answer letters depend on seed.
func SampleQuestions(seed uint64) []model.Question {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	questions := make([]model.Question, 0, SampleSize)
	for i := 1; i <= SampleSize; i++ {
		subject, topic := sampleSubjectTopic(i)
		difficulty := sampleDifficulty(i)
		text := fmt.Sprintf("Sample question %d - This is a %s %s question for %s",
			i, strings.ToLower(difficulty), topic, subject)
		questions = append(questions, model.Question{
			ID:         int64(i),
			Subject:    subject,
			Topic:      topic,
			Difficulty: difficulty,
			Question:   text,
			Options:    append([]string(nil), optionLabels...),
			Answer:     optionLabels[rng.IntN(len(optionLabels))],
		})
	}
	return questions
}

func sampleSubjectTopic(i int) (string, string) {
	switch {
	case i <= 20:
		return "Math", "Algebra"
	case i <= 40:
		return "Math", "Geometry"
	case i <= 55:
		return "Science", "Physics"
	case i <= 70:
		return "Science", "Chemistry"
	case i <= 85:
		return "History", "World"
	default:
		return "History", "US"
	}
}

func sampleDifficulty(i int) string {
	switch {
	case i <= 30:
		return "Easy"
	case i <= 70:
		return "Medium"
	default:
		return "Hard"
	}
}
