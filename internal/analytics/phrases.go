package analytics

import "fmt"

type englishPhrases struct{}

// English is the built-in Phrasebook used when no localized one is supplied.
var English Phrasebook = englishPhrases{}

func (englishPhrases) Practice(topic string, percent int) string {
	return fmt.Sprintf("Practice more %s questions (current accuracy: %d%%)", topic, percent)
}

func (englishPhrases) StartBasic() string {
	return "Start with basic questions in any subject"
}

func (englishPhrases) KeepPracticing() string {
	return "Keep practicing! Try different difficulty levels."
}
