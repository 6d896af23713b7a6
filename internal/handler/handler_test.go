package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studytracker/internal/catalog"
	appI18n "github.com/pavelanni/studytracker/internal/i18n"
	"github.com/pavelanni/studytracker/internal/metrics"
	"github.com/pavelanni/studytracker/internal/model"
	"github.com/pavelanni/studytracker/internal/store"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var testQuestions = []model.Question{
	{ID: 1, Subject: "Math", Topic: "Algebra", Difficulty: "Easy", Question: "1+1?", Options: []string{"A", "B", "C", "D"}, Answer: "A"},
	{ID: 2, Subject: "Math", Topic: "Algebra", Difficulty: "Hard", Question: "x^2=4?", Options: []string{"A", "B", "C", "D"}, Answer: "C"},
	{ID: 3, Subject: "Science", Topic: "Physics", Difficulty: "Medium", Question: "g?", Options: []string{"A", "B", "C", "D"}, Answer: "B"},
}

type fakeCoach struct {
	weakest []model.TopicAccuracy
	err     error
}

func (c *fakeCoach) StudyPlan(_ context.Context, _ model.PerformanceReport, weakest []model.TopicAccuracy) (string, error) {
	c.weakest = weakest
	if c.err != nil {
		return "", c.err
	}
	return "1. Review algebra", nil
}

type testEnv struct {
	router  chi.Router
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, model.ServeConfig{Lang: "en"}, opts...)
}

func newTestEnvWithConfig(t *testing.T, cfg model.ServeConfig, opts ...Option) *testEnv {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c, err := catalog.New(testQuestions)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	opts = append(opts, WithMetrics(m))
	h := New(s, c, cfg, opts...)

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)
	return &testEnv{router: r, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login registers username and returns its session cookie.
func (e *testEnv) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": username, "email": username + "@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": username, "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIndexIsPublic(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Study Tracker")
	assert.Contains(t, rec.Body.String(), "3 questions available.")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	e := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/questions"},
		{http.MethodGet, "/api/topics"},
		{http.MethodPost, "/api/answer"},
		{http.MethodPost, "/api/study-session"},
		{http.MethodGet, "/api/performance"},
		{http.MethodGet, "/api/performance-chart"},
		{http.MethodGet, "/api/recommendations"},
		{http.MethodGet, "/api/study-sessions"},
		{http.MethodGet, "/api/study-plan"},
		{http.MethodGet, "/api/user"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rec := e.do(t, tc.method, tc.path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = e.do(t, tc.method, tc.path, nil, &http.Cookie{Name: sessionCookieName, Value: "bogus"})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	rec := e.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")

	rec = e.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/user", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"username": "alice", "email": "alice@example.com"},
		decodeBody[map[string]string](t, rec))

	rec = e.do(t, http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/user", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuestions(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	rec := e.do(t, http.MethodGet, "/api/questions", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Question](t, rec), 3)

	rec = e.do(t, http.MethodGet, "/api/questions?subject=Math&limit=1", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	qs := decodeBody[[]model.Question](t, rec)
	require.Len(t, qs, 1)
	assert.Equal(t, "Math", qs[0].Subject)

	rec = e.do(t, http.MethodGet, "/api/questions?subject=All&difficulty=Medium", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	qs = decodeBody[[]model.Question](t, rec)
	require.Len(t, qs, 1)
	assert.Equal(t, int64(3), qs[0].ID)

	rec = e.do(t, http.MethodGet, "/api/questions?topic=Botany", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	for _, bad := range []string{"abc", "0", "-2"} {
		rec = e.do(t, http.MethodGet, "/api/questions?limit="+bad, nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestTopics(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	rec := e.do(t, http.MethodGet, "/api/topics", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	f := decodeBody[catalog.Facets](t, rec)
	assert.Equal(t, []string{"Math", "Science"}, f.Subjects)
	assert.Equal(t, []string{"Algebra"}, f.Topics["Math"])
	assert.Equal(t, []string{"Easy", "Hard", "Medium"}, f.Difficulties)
}

func TestEmptyProgress(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	rec := e.do(t, http.MethodGet, "/api/performance", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overall_accuracy":0,"by_topic":{},"by_date":{},"answered_questions_count":0}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/recommendations", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recommendations":["Start with basic questions in any subject"]}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/study-sessions", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[],"total_study_time":"0h 0m"}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/performance-chart", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestAnswerFlow(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	rec := e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 1, "answer": "A"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.AnswerResult{IsCorrect: true, CorrectAnswer: "A"}, decodeBody[model.AnswerResult](t, rec))

	rec = e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 2, "answer": "A"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.AnswerResult{IsCorrect: false, CorrectAnswer: "C"}, decodeBody[model.AnswerResult](t, rec))

	rec = e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 3, "answer": "B"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 999, "answer": "A"}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/answer", `{"question_id": 1`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 1}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "answer")

	rec = e.do(t, http.MethodGet, "/api/performance", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[model.PerformanceReport](t, rec)
	assert.Equal(t, 3, report.AnsweredQuestionsCount)
	assert.InDelta(t, 2.0/3.0, report.OverallAccuracy, 1e-9)
	assert.Equal(t, map[string]float64{"Algebra": 0.5, "Physics": 1}, report.ByTopic)
	assert.Len(t, report.ByDate, 1)

	rec = e.do(t, http.MethodGet, "/api/recommendations", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recommendations":[
		"Practice more Algebra questions (current accuracy: 50%)",
		"Practice more Physics questions (current accuracy: 100%)"]}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/performance-chart", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.AnswersRecorded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.AnswersRecorded.WithLabelValues("false")))
}

func TestProgressIsPerUser(t *testing.T) {
	e := newTestEnv(t)
	alice := e.login(t, "alice")
	bob := e.login(t, "bob")

	rec := e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 1, "answer": "A"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/performance", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[model.PerformanceReport](t, rec).AnsweredQuestionsCount)
}

func TestStudySessions(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	for _, d := range []int{30, 45} {
		rec := e.do(t, http.MethodPost, "/api/study-session",
			map[string]any{"subject": "Math", "topic": "Algebra", "duration": d}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	}

	rec := e.do(t, http.MethodPost, "/api/study-session",
		map[string]any{"subject": "Math", "topic": "Algebra", "duration": -5}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/study-session",
		map[string]any{"subject": "Math", "topic": "Algebra"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duration")

	rec = e.do(t, http.MethodPost, "/api/study-session",
		map[string]any{"subject": "Math", "topic": "Algebra", "duration": 0}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/study-sessions", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[model.StudySummary](t, rec)
	require.Len(t, summary.Sessions, 3)
	assert.Equal(t, []int{30, 45, 0}, []int{summary.Sessions[0].Duration, summary.Sessions[1].Duration, summary.Sessions[2].Duration})
	assert.Equal(t, "1h 15m", summary.TotalStudyTime)
}

func TestStudyPlan(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		e := newTestEnv(t)
		cookie := e.login(t, "alice")
		rec := e.do(t, http.MethodGet, "/api/study-plan", nil, cookie)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("coach", func(t *testing.T) {
		coach := &fakeCoach{}
		e := newTestEnv(t, WithCoach(coach))
		cookie := e.login(t, "alice")
		e.do(t, http.MethodPost, "/api/answer", map[string]any{"question_id": 2, "answer": "A"}, cookie)

		rec := e.do(t, http.MethodGet, "/api/study-plan", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"plan":"1. Review algebra"}`, rec.Body.String())
		assert.Equal(t, []model.TopicAccuracy{{Topic: "Algebra", Accuracy: 0}}, coach.weakest)
	})

	t.Run("coach failure", func(t *testing.T) {
		e := newTestEnv(t, WithCoach(&fakeCoach{err: errors.New("connection refused")}))
		cookie := e.login(t, "alice")
		rec := e.do(t, http.MethodGet, "/api/study-plan", nil, cookie)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.False(t, strings.Contains(rec.Body.String(), "connection refused"))
	})
}

func TestLocalizedRecommendations(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	req.AddCookie(cookie)
	req.Header.Set("Accept-Language", "ru")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	recs := decodeBody[map[string][]string](t, rec)["recommendations"]
	require.Len(t, recs, 1)
	assert.NotEqual(t, "Start with basic questions in any subject", recs[0])
}

func TestSessionCookieSecureFlag(t *testing.T) {
	for _, secure := range []bool{true, false} {
		e := newTestEnvWithConfig(t, model.ServeConfig{Lang: "en", SecureCookies: secure})
		cookie := e.login(t, "alice")
		assert.Equal(t, secure, cookie.Secure)
		assert.True(t, cookie.HttpOnly)
	}
}
