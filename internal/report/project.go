package report

import (
	"unicode"

	"github.com/rahuljishu/mpie/pkg/models"
)

// Project derives the presentation model from a parsed report. It is a pure
// transformation with no failure path: by the time it runs the report is
// structurally valid. Ordering comes from the report and is never changed
// here; any visual inversion (largest at top) is the rendering surface's
// job. rawOutput is the full captured agent output, retained verbatim for
// download and audit.
func Project(r *models.AnalysisReport, rawOutput string) *models.PresentationModel {
	metrics := make([]models.MetricPoint, 0, len(r.RewardBreakdown))
	for _, c := range r.RewardBreakdown {
		metrics = append(metrics, models.MetricPoint{
			Label: displayCase(c.Name),
			Value: c.Value,
		})
	}

	series := make([]models.SeriesPoint, 0, len(r.Relations))
	for _, rel := range r.Relations {
		series = append(series, models.SeriesPoint{
			Label: rel.Source + "→" + rel.Target,
			Value: rel.FitScore,
		})
	}

	return &models.PresentationModel{
		BestColumn:  r.BestColumn,
		Metrics:     metrics,
		ChartSeries: series,
		RawReport:   rawOutput,
	}
}

// displayCase upper-cases the first rune only, matching the report's own
// casing convention for component names.
func displayCase(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
