package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studytracker/internal/catalog"
	appI18n "github.com/pavelanni/studytracker/internal/i18n"
	"github.com/pavelanni/studytracker/internal/metrics"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/progress"
	"github.com/pavelanni/studytracker/internal/store"
)

// Coach writes a study plan for a user's weakest topics.
type Coach interface {
	StudyPlan(ctx context.Context, report model.PerformanceReport, weakest []model.TopicAccuracy) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	catalog  *catalog.Catalog
	recorder *progress.Recorder
	coach    Coach
	metrics  *metrics.Metrics
	validate *validator.Validate
	config   model.ServeConfig
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithCoach enables /api/study-plan.
func WithCoach(c Coach) Option {
	return func(h *Handler) { h.coach = c }
}

// WithMetrics counts recorded answers on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New creates a new Handler.
func New(s *store.Store, c *catalog.Catalog, cfg model.ServeConfig, opts ...Option) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	h := &Handler{
		store:    s,
		catalog:  c,
		recorder: progress.NewRecorder(c, nil),
		validate: v,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", h.handleRegister)
		api.Post("/login", h.handleLogin)
		api.Post("/logout", h.handleLogout)

		api.Group(func(p chi.Router) {
			p.Use(h.requireAuth)
			p.Get("/questions", h.handleQuestions)
			p.Get("/topics", h.handleTopics)
			p.Post("/answer", h.handleAnswer)
			p.Post("/study-session", h.handleStudySession)
			p.Get("/performance", h.handlePerformance)
			p.Get("/performance-chart", h.handlePerformanceChart)
			p.Get("/recommendations", h.handleRecommendations)
			p.Get("/study-sessions", h.handleStudySessions)
			p.Get("/study-plan", h.handleStudyPlan)
			p.Get("/user", h.handleUser)
		})
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := html.EscapeString(appI18n.T(ctx, "AppTitle"))
	_, err := fmt.Fprintf(w, "<!doctype html>\n<title>%s</title>\n<h1>%s</h1>\n<p>%s</p>\n<p>%s</p>\n",
		title, title,
		html.EscapeString(appI18n.T(ctx, "AppTagline")),
		html.EscapeString(appI18n.Tp(ctx, "QuestionsAvailable", h.catalog.Len())))
	if err != nil {
		slog.Error("write index", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrDuplicate):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &model.ValidationError{Fields: []string{"body"}}
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return &model.ValidationError{Fields: fields}
		}
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
