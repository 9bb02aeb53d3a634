package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/rahuljishu/mpie/pkg/models"
)

// printResult renders the presentation model for the terminal: the best
// column, metric cards, and a horizontal fit-score chart drawn best first.
func printResult(w io.Writer, r *models.PresentationModel) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	_, _ = bold.Fprintf(w, "Best explanatory column: %s\n", r.BestColumn)
	fmt.Fprintln(w)

	for _, m := range r.Metrics {
		fmt.Fprintf(w, "  %-14s %.3f\n", m.Label, m.Value)
	}

	if len(r.ChartSeries) == 0 {
		fmt.Fprintln(w)
		_, _ = dim.Fprintln(w, "  No significant relations discovered.")
		return
	}

	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Top discovered relations")

	width := maxLabelWidth(r.ChartSeries)
	for _, p := range r.ChartSeries {
		fmt.Fprintf(w, "  %-*s ", width, p.Label)
		printFitBar(w, p.Value)
		fmt.Fprintf(w, " R²=%.2f\n", p.Value)
	}
}

// printFitBar draws a fixed-width bar scaled by the fit score, clamped to
// [0, 1] for display only.
func printFitBar(w io.Writer, score float64) {
	const barWidth = 24

	clamped := score
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 1 {
		clamped = 1
	}
	filled := int(clamped * barWidth)

	var barColor *color.Color
	switch {
	case score >= 0.8:
		barColor = color.New(color.FgGreen)
	case score >= 0.4:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	_, _ = barColor.Fprint(w, strings.Repeat("█", filled)+strings.Repeat("░", barWidth-filled))
}

func maxLabelWidth(series []models.SeriesPoint) int {
	width := 0
	for _, p := range series {
		if n := len([]rune(p.Label)); n > width {
			width = n
		}
	}
	return width
}
