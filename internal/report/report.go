// Package report writes a user's progress export as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/studytracker/internal/model"
)

// Sheet names in workbook order.
const (
	SheetSummary  = "Summary"
	SheetTopics   = "Topics"
	SheetAnswers  = "Answers"
	SheetSessions = "Sessions"
)

// WriteXLSX renders exp as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, exp model.ProgressExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetAnswers, SheetSessions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw := sheetWriter{f: f, header: header}
	sw.summary(exp)
	sw.topics(exp.Topics)
	sw.answers(exp.Answers)
	sw.sessions(exp.Sessions)
	if sw.err != nil {
		return sw.err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so rows can be written without checking each call.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (sw *sheetWriter) row(sheet string, n int, values ...any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sheet, cell, &values); err != nil {
		sw.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (sw *sheetWriter) headerRow(sheet string, titles ...any) {
	sw.row(sheet, 1, titles...)
	if sw.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetCellStyle(sheet, "A1", last, sw.header); err != nil {
		sw.err = fmt.Errorf("%s header style: %w", sheet, err)
	}
}

func (sw *sheetWriter) summary(exp model.ProgressExport) {
	sw.headerRow(SheetSummary, "Field", "Value")
	sw.row(SheetSummary, 2, "Username", exp.Username)
	sw.row(SheetSummary, 3, "Generated at", exp.GeneratedAt.Format(model.TimestampLayout))
	sw.row(SheetSummary, 4, "Answered questions", exp.Report.AnsweredQuestionsCount)
	sw.row(SheetSummary, 5, "Overall accuracy", exp.Report.OverallAccuracy)

	dates := make([]string, 0, len(exp.Report.ByDate))
	for d := range exp.Report.ByDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	n := 6
	for _, d := range dates {
		sw.row(SheetSummary, n, "Accuracy on "+d, exp.Report.ByDate[d])
		n++
	}
}

func (sw *sheetWriter) topics(topics []model.TopicAccuracy) {
	sw.headerRow(SheetTopics, "Topic", "Accuracy")
	for i, t := range topics {
		sw.row(SheetTopics, i+2, t.Topic, t.Accuracy)
	}
}

func (sw *sheetWriter) answers(answers []model.AnsweredQuestion) {
	sw.headerRow(SheetAnswers, "Timestamp", "Question", "Subject", "Topic", "Difficulty", "Answer", "Correct answer", "Correct")
	for i, a := range answers {
		sw.row(SheetAnswers, i+2, a.Timestamp, a.QuestionID, a.Subject, a.Topic, a.Difficulty,
			a.UserAnswer, a.CorrectAnswer, a.IsCorrect)
	}
}

func (sw *sheetWriter) sessions(sessions []model.StudySession) {
	sw.headerRow(SheetSessions, "Date", "Subject", "Topic", "Minutes")
	for i, s := range sessions {
		sw.row(SheetSessions, i+2, s.Date, s.Subject, s.Topic, s.Duration)
	}
}
