package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pavelanni/studytracker/internal/analytics"
	"github.com/pavelanni/studytracker/internal/chart"
	appI18n "github.com/pavelanni/studytracker/internal/i18n"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/progress"
)

const defaultQuestionLimit = 10

type answerRequest struct {
	QuestionID int64  `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

type studySessionRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Topic    string `json:"topic" validate:"required"`
	Duration *int   `json:"duration" validate:"required,min=0"`
}

func queryFilter(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return model.FilterAll
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	limit := defaultQuestionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, &model.ValidationError{Fields: []string{"limit"}})
			return
		}
		limit = n
	}

	f := model.QuestionFilter{
		Subject:    queryFilter(r, "subject"),
		Topic:      queryFilter(r, "topic"),
		Difficulty: queryFilter(r, "difficulty"),
	}
	writeJSON(w, http.StatusOK, h.catalog.Sample(f, limit, nil))
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Facets())
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var req answerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result model.AnswerResult
	err := h.store.UpdateProgress(r.Context(), user.ID, func(p *model.UserProgress) error {
		next, res, err := h.recorder.Submit(*p, req.QuestionID, req.Answer)
		if err != nil {
			return err
		}
		*p = next
		result = res
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.ObserveAnswer(result.IsCorrect)
	slog.Debug("answer recorded", "user_id", user.ID, "question_id", req.QuestionID, "correct", result.IsCorrect)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStudySession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var req studySessionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.store.UpdateProgress(r.Context(), user.ID, func(p *model.UserProgress) error {
		next, err := h.recorder.RecordSession(*p, req.Subject, req.Topic, *req.Duration)
		if err != nil {
			return err
		}
		*p = next
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// snapshot loads the authenticated user's progress, writing an error response on failure.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (model.UserProgress, bool) {
	user := model.UserFromContext(r.Context())
	p, err := h.store.GetProgress(r.Context(), user.ID)
	if err != nil {
		writeError(w, fmt.Errorf("load progress: %w", err))
		return model.UserProgress{}, false
	}
	return p, true
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	p, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.Aggregate(p, time.Now()))
}

func (h *Handler) handlePerformanceChart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	img, err := chart.Render(p, appI18n.ChartLabels(r.Context()))
	if err != nil {
		writeError(w, fmt.Errorf("render chart: %w", err))
		return
	}
	w.Header().Set("Content-Type", chart.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	if _, err := w.Write(img); err != nil {
		slog.Error("write chart", "error", err)
	}
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	p, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	recs := analytics.Recommend(p, appI18n.PhrasesFor(r.Context()))
	writeJSON(w, http.StatusOK, map[string][]string{"recommendations": recs})
}

func (h *Handler) handleStudySessions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, progress.Summary(p))
}

func (h *Handler) handleStudyPlan(w http.ResponseWriter, r *http.Request) {
	if h.coach == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, "study plans are not configured")
		return
	}
	p, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	report := analytics.Aggregate(p, time.Now())
	plan, err := h.coach.StudyPlan(r.Context(), report, analytics.Weakest(p, analytics.MaxRecommendations))
	if err != nil {
		slog.Error("study plan failed", "error", err)
		writeErrorMessage(w, http.StatusBadGateway, "study plan unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan": plan})
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}
