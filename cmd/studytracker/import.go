package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/pavelanni/studytracker/internal/catalog"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/store"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import question bank JSON files into the database",
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "studytracker.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Question bank JSON files (repeatable)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("questions")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return importQuestions(cmd.Context(), db, v.GetStringSlice("questions"))
}

// importQuestions stores every question of each file, all or nothing per file. Files
// already imported, by content hash, are skipped; a file changed since its import is
// skipped with a warning.
func importQuestions(ctx context.Context, db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to keep recorded answers consistent",
				"path", path)
			continue
		}

		var questions []model.Question
		if err := json.Unmarshal(data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := checkQuestions(questions); err != nil {
			return fmt.Errorf("check %s: %w", path, err)
		}

		if err := db.ImportQuestions(ctx, path, hash, questions); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		slog.Info("imported questions", "path", path, "count", len(questions))
	}

	return nil
}

// checkQuestions rejects malformed questions, answers that are not one of the
// options and repeated explicit IDs before anything is written.
func checkQuestions(questions []model.Question) error {
	validate := validator.New()
	seen := make(map[int64]bool, len(questions))
	for i, q := range questions {
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("question #%d: %w", i+1, err)
		}
		if !slices.Contains(q.Options, q.Answer) {
			return fmt.Errorf("question #%d: answer %q is not one of the options", i+1, q.Answer)
		}
		if q.ID != 0 {
			if seen[q.ID] {
				return fmt.Errorf("question %d: %w", q.ID, model.ErrDuplicate)
			}
			seen[q.ID] = true
		}
	}
	return nil
}

// seedSampleQuestions fills an empty question table with the built-in sample bank.
func seedSampleQuestions(db *store.Store, seed uint64) error {
	count, err := db.QuestionCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	questions := catalog.SampleQuestions(seed)
	for _, q := range questions {
		if _, err := db.InsertQuestion(q); err != nil {
			return fmt.Errorf("insert sample question %d: %w", q.ID, err)
		}
	}
	slog.Info("seeded sample questions", "count", len(questions), "seed", seed)
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
