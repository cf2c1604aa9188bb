package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one category in a bar chart.
type Bar struct {
	Label string
	Value float64
}

// Point is one sample of a time series.
type Point struct {
	Label string
	Value float64
}

// MapPoint is one station on the scatter map.
type MapPoint struct {
	Name   string
	Lat    float64
	Lon    float64
	Weight float64
}

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// BarChart renders one horizontal bar per category, scaled to the largest value.
func BarChart(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}

	labelWidth, maxVal := 0, 0.0
	for _, bar := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(bar.Label))
		maxVal = math.Max(maxVal, bar.Value)
	}

	barSpace := width - labelWidth - len(formatValue(maxVal)) - 3
	if barSpace < 10 {
		barSpace = 10
	}

	lines := make([]string, len(bars))
	for i, bar := range bars {
		n := 0
		if maxVal > 0 && bar.Value > 0 {
			n = max(1, int(math.Round(bar.Value/maxVal*float64(barSpace))))
		}
		label := bar.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(bar.Label))
		style := lipgloss.NewStyle().Foreground(seriesColors[i%len(seriesColors)])
		lines[i] = fmt.Sprintf("%s │%s %s", label, style.Render(strings.Repeat("█", n)), formatValue(bar.Value))
	}
	return strings.Join(lines, "\n")
}

// ColumnChart renders a vertical column chart height rows tall. When there
// are more points than columns, neighbouring points are averaged.
func ColumnChart(points []Point, width, height int) string {
	if len(points) == 0 {
		return ""
	}
	if height < 1 {
		height = 1
	}

	maxVal := 0.0
	for _, p := range points {
		maxVal = math.Max(maxVal, p.Value)
	}
	axis := len(formatValue(maxVal))

	cols := downsample(points, max(1, width-axis-2))

	var b strings.Builder
	style := lipgloss.NewStyle().Foreground(QuestionColor)
	for row := height - 1; row >= 0; row-- {
		switch row {
		case height - 1:
			b.WriteString(padLeft(formatValue(maxVal), axis) + " ┤")
		default:
			b.WriteString(strings.Repeat(" ", axis) + " │")
		}

		var line strings.Builder
		for _, v := range cols {
			level := 0
			if maxVal > 0 {
				level = int(math.Round(v / maxVal * float64(height*8)))
			}
			fill := level - row*8
			switch {
			case fill >= 8:
				line.WriteRune('█')
			case fill <= 0:
				line.WriteRune(' ')
			default:
				line.WriteRune(eighths[fill])
			}
		}
		b.WriteString(style.Render(line.String()))
		b.WriteString("\n")
	}

	b.WriteString(padLeft("0", axis) + " └" + strings.Repeat("─", len(cols)) + "\n")

	first, last := points[0].Label, points[len(points)-1].Label
	gap := len(cols) - lipgloss.Width(first) - lipgloss.Width(last)
	footer := first
	if gap > 0 && first != last {
		footer = first + strings.Repeat(" ", gap) + last
	}
	b.WriteString(strings.Repeat(" ", axis+2) + MutedStyle.Render(footer))

	return b.String()
}

// downsample averages points into at most n buckets, preserving order.
func downsample(points []Point, n int) []float64 {
	if len(points) <= n {
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = p.Value
		}
		return out
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * len(points) / n
		end := (i + 1) * len(points) / n
		sum := 0.0
		for _, p := range points[start:end] {
			sum += p.Value
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// StationMap projects stations onto a width by height grid with north up.
// Heavier stations draw with denser glyphs.
func StationMap(points []MapPoint, width, height int) string {
	if len(points) == 0 || width < 1 || height < 1 {
		return ""
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	maxWeight := 0.0
	for _, p := range points {
		minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
		minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
		maxWeight = math.Max(maxWeight, p.Weight)
	}
	spanLat, spanLon := maxLat-minLat, maxLon-minLon
	if spanLat == 0 {
		spanLat = 1
	}
	if spanLon == 0 {
		spanLon = 1
	}

	grid := make([][]float64, height)
	for i := range grid {
		grid[i] = make([]float64, width)
		for j := range grid[i] {
			grid[i][j] = -1
		}
	}

	for _, p := range points {
		col := int(math.Round((p.Lon - minLon) / spanLon * float64(width-1)))
		row := int(math.Round((maxLat - p.Lat) / spanLat * float64(height-1)))
		grid[row][col] = math.Max(grid[row][col], p.Weight)
	}

	dot := lipgloss.NewStyle().Foreground(HeaderColor)
	lines := make([]string, height)
	for i, cells := range grid {
		var line strings.Builder
		for _, w := range cells {
			line.WriteString(glyph(w, maxWeight, dot))
		}
		lines[i] = line.String()
	}
	return strings.Join(lines, "\n")
}

func glyph(w, maxWeight float64, style lipgloss.Style) string {
	if w < 0 {
		return " "
	}
	ratio := 1.0
	if maxWeight > 0 {
		ratio = w / maxWeight
	}
	switch {
	case ratio > 0.66:
		return style.Render("●")
	case ratio > 0.33:
		return style.Render("•")
	default:
		return style.Render("·")
	}
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func padLeft(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}
