package model

import "time"

// ProgressExport is the top-level structure written by the export command.
type ProgressExport struct {
	Username    string             `json:"username"`
	GeneratedAt time.Time          `json:"generated_at"`
	Report      PerformanceReport  `json:"report"`
	Topics      []TopicAccuracy    `json:"topics"`
	Answers     []AnsweredQuestion `json:"answers"`
	Sessions    []StudySession     `json:"sessions"`
}
