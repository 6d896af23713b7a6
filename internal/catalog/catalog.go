// Package catalog holds the read-only question bank used by the API.
package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/pavelanni/studytracker/internal/model"
)

// Catalog is an immutable set of questions. It is safe for concurrent use.
type Catalog struct {
	questions []model.Question
	byID      map[int64]int
}

// New builds a catalog. Question IDs must be unique.
func New(questions []model.Question) (*Catalog, error) {
	c := &Catalog{
		questions: make([]model.Question, len(questions)),
		byID:      make(map[int64]int, len(questions)),
	}
	copy(c.questions, questions)
	for i, q := range c.questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d: %w", q.ID, model.ErrDuplicate)
		}
		c.byID[q.ID] = i
	}
	return c, nil
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Get returns the question with the given ID or model.ErrNotFound.
func (c *Catalog) Get(id int64) (model.Question, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Question{}, model.ErrNotFound
	}
	return c.questions[i], nil
}

// Filter returns questions matching f in catalog order.
func (c *Catalog) Filter(f model.QuestionFilter) []model.Question {
	out := []model.Question{}
	for _, q := range c.questions {
		if matches(f.Subject, q.Subject) && matches(f.Topic, q.Topic) && matches(f.Difficulty, q.Difficulty) {
			out = append(out, q)
		}
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == model.FilterAll || want == got
}

// Sample filters the catalog and, when more than limit questions match, returns a
// random subset of size limit. rng may be nil to use the global source.
func (c *Catalog) Sample(f model.QuestionFilter, limit int, rng *rand.Rand) []model.Question {
	qs := c.Filter(f)
	if limit < 0 || len(qs) <= limit {
		return qs
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
	return qs[:limit]
}

// Facets lists the distinct filter values of the catalog.
type Facets struct {
	Subjects     []string            `json:"subjects"`
	Topics       map[string][]string `json:"topics"`
	Difficulties []string            `json:"difficulties"`
}

// Facets returns subjects, topics per subject and difficulties in first-seen order.
func (c *Catalog) Facets() Facets {
	f := Facets{
		Subjects:     []string{},
		Topics:       map[string][]string{},
		Difficulties: []string{},
	}
	seenTopic := map[string]bool{}
	seenDifficulty := map[string]bool{}
	for _, q := range c.questions {
		if _, ok := f.Topics[q.Subject]; !ok {
			f.Subjects = append(f.Subjects, q.Subject)
			f.Topics[q.Subject] = []string{}
		}
		if key := q.Subject + "\x00" + q.Topic; !seenTopic[key] {
			seenTopic[key] = true
			f.Topics[q.Subject] = append(f.Topics[q.Subject], q.Topic)
		}
		if !seenDifficulty[q.Difficulty] {
			seenDifficulty[q.Difficulty] = true
			f.Difficulties = append(f.Difficulties, q.Difficulty)
		}
	}
	return f
}
