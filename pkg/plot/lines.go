// Package plot renders keyword graph series as PNG charts and Sankey pages.
package plot

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

// ErrNoData is returned when none of the series has a value to draw.
var ErrNoData = errors.New("nothing to plot")

// Colors of the keyword categories and the distance tiers.
var Colors = map[string]drawing.Color{
	"chemical": drawing.ColorFromHex("ff0000"),
	"disease":  drawing.ColorFromHex("ffa500"),
	"gene":     drawing.ColorFromHex("008000"),
	"all_keys": drawing.ColorFromHex("808080"),

	"2":   drawing.ColorFromHex("ff8c00"),
	"3":   drawing.ColorFromHex("f0e68c"),
	"4":   drawing.ColorFromHex("3cb371"),
	"5":   drawing.ColorFromHex("00bfff"),
	"inf": drawing.ColorFromHex("708090"),
}

var grey = drawing.ColorFromHex("808080")

const (
	width  = 960
	height = 720
)

// LineChart is a set of series over years drawn on one pair of axes.
// Each series is labelled and coloured by its Category.
type LineChart struct {
	Title  string
	XLabel string
	YLabel string
	Series []timeline.Series
}

// Lines renders c as a PNG file at path.
func Lines(path string, c LineChart) error {
	var series []chart.Series
	var xs, ys []float64
	for i, s := range c.Series {
		if len(s.Values) == 0 {
			continue
		}
		x := years(s.Years)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Category,
			Style:   lineStyle(s.Category, i),
			XValues: x,
			YValues: s.Values,
		})
		xs = append(xs, x...)
		ys = append(ys, s.Values...)
	}
	if len(series) == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrNoData)
	}

	graph := chart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           c.XLabel,
			ValueFormatter: yearFormatter,
			Range:          paddedRange(xs),
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: paddedRange(ys),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(path, graph)
}

// DualAxisChart plots one series against the primary y axis and another
// against the secondary one.
type DualAxisChart struct {
	Title          string
	XLabel         string
	PrimaryLabel   string
	SecondaryLabel string
	Primary        timeline.Series
	Secondary      timeline.Series
}

// DualAxis renders c as a PNG file at path. The secondary series is grey.
func DualAxis(path string, c DualAxisChart) error {
	if len(c.Primary.Values) == 0 || len(c.Secondary.Values) == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrNoData)
	}

	px := years(c.Primary.Years)
	sx := years(c.Secondary.Years)
	graph := chart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           c.XLabel,
			ValueFormatter: yearFormatter,
			Range:          paddedRange(append(append([]float64{}, px...), sx...)),
		},
		YAxis: chart.YAxis{
			Name:  c.PrimaryLabel,
			Range: paddedRange(c.Primary.Values),
		},
		YAxisSecondary: chart.YAxis{
			Name:  c.SecondaryLabel,
			Range: paddedRange(c.Secondary.Values),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Primary.Category,
				Style:   lineStyle(c.Primary.Category, 0),
				XValues: px,
				YValues: c.Primary.Values,
			},
			chart.ContinuousSeries{
				Name:    c.Secondary.Category,
				Style:   chart.Style{StrokeColor: grey, StrokeWidth: 2},
				YAxis:   chart.YAxisSecondary,
				XValues: sx,
				YValues: c.Secondary.Values,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(path, graph)
}

func render(path string, graph chart.Chart) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func lineStyle(name string, i int) chart.Style {
	color, ok := Colors[name]
	if !ok {
		color = chart.GetDefaultColor(i)
	}
	return chart.Style{StrokeColor: color, StrokeWidth: 2}
}

func years(ys []int) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = float64(y)
	}
	return out
}

func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(math.Round(f)))
	}
	return ""
}

// paddedRange spans values, widened by one on both ends when all values
// are equal so the axis never collapses.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
