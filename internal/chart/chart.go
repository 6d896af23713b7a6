// Package chart renders per-topic accuracy as a PNG bar chart.
package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/pavelanni/studytracker/internal/model"
)

// Canvas size of every rendered image.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// ContentType is the MIME type of Render's output.
const ContentType = "image/png"

var barColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Labels holds the user-visible chart text.
type Labels struct {
	Title  string
	XLabel string
	NoData string
}

// DefaultLabels are the English chart labels.
var DefaultLabels = Labels{
	Title:  "Performance by Topic",
	XLabel: "Accuracy",
	NoData: "No data available yet.\nComplete some quizzes first.",
}

// Render draws one horizontal bar per topic, in first-answer order, with bar length
// equal to the topic's accuracy. A snapshot without topic counters produces a
// placeholder image carrying only the NoData text.
func Render(snapshot model.UserProgress, labels Labels) ([]byte, error) {
	var (
		p   *plot.Plot
		err error
	)
	if len(snapshot.PerformanceByTopic) == 0 {
		p, err = placeholder(labels.NoData)
	} else {
		p, err = barChart(snapshot, labels)
	}
	if err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// bars returns topic names and accuracies in snapshot order; empty counters plot as 0.
func bars(snapshot model.UserProgress) ([]string, plotter.Values) {
	names := make([]string, len(snapshot.PerformanceByTopic))
	values := make(plotter.Values, len(snapshot.PerformanceByTopic))
	for i, tp := range snapshot.PerformanceByTopic {
		names[i] = tp.Topic
		values[i] = tp.Accuracy()
	}
	return names, values
}

func barChart(snapshot model.UserProgress, labels Labels) (*plot.Plot, error) {
	names, values := bars(snapshot)

	p := plot.New()
	p.Title.Text = labels.Title
	p.X.Label.Text = labels.XLabel

	bc, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("create bar chart: %w", err)
	}
	bc.Horizontal = true
	bc.Color = barColor
	bc.LineStyle.Width = 0
	p.Add(bc)
	p.NominalY(names...)
	p.X.Min = 0
	if p.X.Max < 1 {
		p.X.Max = 1
	}
	return p, nil
}

func placeholder(msg string) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()

	lbls, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{msg},
	})
	if err != nil {
		return nil, fmt.Errorf("create placeholder label: %w", err)
	}
	lbls.TextStyle[0].XAlign = text.XCenter
	lbls.TextStyle[0].YAlign = text.YCenter
	lbls.TextStyle[0].Font.Size = vg.Points(16)
	p.Add(lbls)

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p, nil
}
