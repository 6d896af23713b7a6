package i18n

import (
	"context"

	"github.com/pavelanni/studytracker/internal/chart"
)

// Phrases renders recommendation text in the request's language.
type Phrases struct {
	ctx context.Context
}

// PhrasesFor returns the phrasebook bound to ctx's localizer.
func PhrasesFor(ctx context.Context) Phrases {
	return Phrases{ctx: ctx}
}

func (p Phrases) Practice(topic string, percent int) string {
	return Td(p.ctx, "PracticeTopic", map[string]any{"Topic": topic, "Percent": percent})
}

func (p Phrases) StartBasic() string {
	return T(p.ctx, "StartBasic")
}

func (p Phrases) KeepPracticing() string {
	return T(p.ctx, "KeepPracticing")
}

// ChartLabels returns localized chart text.
func ChartLabels(ctx context.Context) chart.Labels {
	return chart.Labels{
		Title:  T(ctx, "ChartTitle"),
		XLabel: T(ctx, "ChartAccuracy"),
		NoData: T(ctx, "ChartNoData"),
	}
}
