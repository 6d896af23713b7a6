package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/studytracker/internal/analytics"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/report"
	"github.com/pavelanni/studytracker/internal/store"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's progress as XLSX or JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "studytracker.db", "SQLite database path")
	f.StringP("user", "u", "", "Username to export (required)")
	f.StringP("output", "o", "-", "Output file path; .xlsx writes a workbook, anything else JSON (- for stdout)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	exp, err := buildExport(cmd.Context(), db, v.GetString("user"), time.Now())
	if err != nil {
		return err
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return writeExport(w, exp, isXLSX(outPath))
}

func buildExport(ctx context.Context, db *store.Store, username string, now time.Time) (model.ProgressExport, error) {
	user, p, err := db.ProgressForUsername(ctx, username)
	if err != nil {
		return model.ProgressExport{}, fmt.Errorf("load progress: %w", err)
	}
	return model.ProgressExport{
		Username:    user.Username,
		GeneratedAt: now,
		Report:      analytics.Aggregate(p, now),
		Topics:      analytics.Rank(p),
		Answers:     p.AnsweredQuestions,
		Sessions:    p.StudySessions,
	}, nil
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func writeExport(w io.Writer, exp model.ProgressExport, xlsx bool) error {
	if xlsx {
		return report.WriteXLSX(w, exp)
	}

	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
