package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pavelanni/studytracker/internal/catalog"
	"github.com/pavelanni/studytracker/internal/handler"
	appI18n "github.com/pavelanni/studytracker/internal/i18n"
	"github.com/pavelanni/studytracker/internal/jobs"
	"github.com/pavelanni/studytracker/internal/llm"
	"github.com/pavelanni/studytracker/internal/metrics"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "studytracker.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Question bank JSON files to import before serving (repeatable)")
	f.Uint64("sample-seed", 42, "Seed for the sample question bank used when the database has no questions")
	f.StringP("lang", "l", "en", "Default language (en, ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies (disable for plain-HTTP local development, or browsers drop the session cookie)")
	f.Duration("session-ttl", 24*time.Hour, "Lifetime of a login session")
	f.Duration("cleanup-interval", time.Hour, "How often expired login sessions are deleted")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables study plans)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	addLogFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetSessionTTL(v.GetDuration("session-ttl"))

	if err := importQuestions(cmd.Context(), db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("import questions: %w", err)
	}
	if err := seedSampleQuestions(db, v.GetUint64("sample-seed")); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	questions, err := db.ListQuestions()
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	cat, err := catalog.New(questions)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	slog.Info("question catalog loaded", "count", cat.Len())

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.ServeConfig{
		SecureCookies: v.GetBool("secure-cookies"),
		SessionTTL:    v.GetDuration("session-ttl"),
		Lang:          lang,
	}
	var opts []handler.Option

	if llmURL := v.GetString("llm-url"); llmURL != "" {
		llmClient := llm.New(llmURL, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := llmClient.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", llmURL, "model", v.GetString("llm-model"))
		opts = append(opts, handler.WithCoach(llmClient))
	}

	var m *metrics.Metrics
	if v.GetBool("metrics") {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		opts = append(opts, handler.WithMetrics(m))
	}

	r := chi.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	h := handler.New(db, cat, cfg, opts...)
	h.Routes(r)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	scheduler := jobs.New()
	if err := scheduler.ScheduleSessionCleanup(db, v.GetDuration("cleanup-interval")); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"lang", lang,
			"questions", cat.Len(),
			"study_plans", v.GetString("llm-url") != "",
			"metrics", v.GetBool("metrics"),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
