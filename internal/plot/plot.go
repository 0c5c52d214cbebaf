// Package plot renders query series to PNG charts with go-chart. It receives
// plain numeric sequences and labels and knows nothing about the records they
// came from.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrTooFewPoints is returned when a series has fewer than two points.
	ErrTooFewPoints = errors.New("a chart needs at least two points")
	// ErrLengthMismatch is returned when x and y sequences differ in length.
	ErrLengthMismatch = errors.New("x and y values must have the same length")
	// ErrFlatSeries is returned when every x or every y value is the same,
	// leaving an axis with no range to scale.
	ErrFlatSeries = errors.New("all values on an axis are equal")
)

// Default chart size in pixels.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Figure is one chart to render: two equal-length sequences plus the axis
// and title text.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
	Labels []string // Optional per-point annotations, scatter only
	Width  int
	Height int
}

func (f Figure) validate() error {
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(f.X), len(f.Y))
	}
	if len(f.X) < 2 {
		return ErrTooFewPoints
	}
	if len(f.Labels) > 0 && len(f.Labels) != len(f.X) {
		return fmt.Errorf("%w: %d labels for %d points", ErrLengthMismatch, len(f.Labels), len(f.X))
	}
	if flat(f.X) {
		return fmt.Errorf("%w: x", ErrFlatSeries)
	}
	if flat(f.Y) {
		return fmt.Errorf("%w: y", ErrFlatSeries)
	}
	return nil
}

func flat(vs []float64) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}

func (f Figure) size() (int, int) {
	w, h := f.Width, f.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// pointStyle draws dots only, with no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func (f Figure) chart(series ...chart.Series) chart.Chart {
	w, h := f.size()
	return chart.Chart{
		Title:      f.Title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: f.XLabel},
		YAxis:      chart.YAxis{Name: f.YLabel},
		Series:     series,
	}
}

// Line renders f as a connected line chart.
func Line(w io.Writer, f Figure) error {
	if err := f.validate(); err != nil {
		return err
	}
	series := chart.ContinuousSeries{
		Name:    f.YLabel,
		XValues: f.X,
		YValues: f.Y,
		Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
	}
	ch := f.chart(series)
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render line chart: %w", err)
	}
	return nil
}

// Scatter renders f as a scatter plot with a least-squares regression line.
// Points are annotated with f.Labels when present.
func Scatter(w io.Writer, f Figure) error {
	if err := f.validate(); err != nil {
		return err
	}
	points := chart.ContinuousSeries{
		Name:    f.Title,
		XValues: f.X,
		YValues: f.Y,
		Style:   pointStyle(chart.ColorBlue),
	}
	regression := &chart.LinearRegressionSeries{
		Name:        "Regression",
		InnerSeries: points,
		Style:       chart.Style{StrokeColor: chart.ColorAlternateGray, StrokeWidth: 1},
	}
	series := []chart.Series{points, regression}

	if len(f.Labels) > 0 {
		annotations := make([]chart.Value2, len(f.Labels))
		for i, label := range f.Labels {
			annotations[i] = chart.Value2{XValue: f.X[i], YValue: f.Y[i], Label: label}
		}
		series = append(series, chart.AnnotationSeries{Annotations: annotations})
	}

	ch := f.chart(series...)
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render scatter chart: %w", err)
	}
	return nil
}

// RenderFunc draws a figure to w.
type RenderFunc func(w io.Writer, f Figure) error

// SaveFile renders f with render into path, creating parent directories.
func SaveFile(path string, render RenderFunc, f Figure) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := render(file, f); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write plot file: %w", err)
	}
	return nil
}
