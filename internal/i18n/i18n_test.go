package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pavelanni/studytracker/internal/analytics"
	"github.com/pavelanni/studytracker/internal/chart"
	"github.com/pavelanni/studytracker/internal/model"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Study Tracker" {
		t.Errorf("T(AppTitle) = %q, want 'Study Tracker'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "ChartAccuracy")
	if got != "Точность" {
		t.Errorf("T(ChartAccuracy) = %q, want 'Точность'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsAvailable", 1)
	if got1 != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q", got1)
	}

	got5 := Tp(ctx, "QuestionsAvailable", 5)
	if got5 != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q", got5)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestPhrasesMatchBuiltinEnglish(t *testing.T) {
	ctx := initLang(t, "en")
	pb := PhrasesFor(ctx)

	if got, want := pb.Practice("Physics", 20), analytics.English.Practice("Physics", 20); got != want {
		t.Errorf("Practice = %q, want %q", got, want)
	}
	if got, want := pb.StartBasic(), analytics.English.StartBasic(); got != want {
		t.Errorf("StartBasic = %q, want %q", got, want)
	}
	if got, want := pb.KeepPracticing(), analytics.English.KeepPracticing(); got != want {
		t.Errorf("KeepPracticing = %q, want %q", got, want)
	}

	p := model.UserProgress{PerformanceByTopic: []model.TopicPerformance{
		{Topic: "Algebra", TopicCounter: model.TopicCounter{Correct: 3, Total: 4}},
	}}
	recs := analytics.Recommend(p, pb)
	if len(recs) != 1 || recs[0] != "Practice more Algebra questions (current accuracy: 75%)" {
		t.Errorf("unexpected recommendations %q", recs)
	}
}

func TestChartLabelsEnglish(t *testing.T) {
	ctx := initLang(t, "en")
	if got := ChartLabels(ctx); got != chart.DefaultLabels {
		t.Errorf("ChartLabels = %+v, want %+v", got, chart.DefaultLabels)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "ChartTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Успеваемость по темам" {
		t.Errorf("ru request got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Performance by Topic" {
		t.Errorf("default request got %q", got)
	}
}
