package models

import (
	"fmt"
	"time"
)

// RewardComponent is one named scalar in the agent's reward break-down.
type RewardComponent struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Relation is a discovered directional association between two dataset
// columns with a goodness-of-fit score.
type Relation struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	FitScore float64 `json:"fit_score"`
}

// AnalysisReport is the typed form of one analysis agent report. It is
// built once per invocation and never mutated.
type AnalysisReport struct {
	BestColumn      string            `json:"best_column"`
	RewardBreakdown []RewardComponent `json:"reward_breakdown"` // source order
	Relations       []Relation        `json:"relations"`        // rank order, best first
}

// OutOfRangeRelations returns relations whose fit score falls outside the
// nominal [0, 1] domain. Such values are not a parse failure, but callers
// should surface them as a data-quality signal.
func (r *AnalysisReport) OutOfRangeRelations() []Relation {
	var out []Relation
	for _, rel := range r.Relations {
		if rel.FitScore < 0 || rel.FitScore > 1 {
			out = append(out, rel)
		}
	}
	return out
}

// MetricPoint is one display-ready reward metric.
type MetricPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SeriesPoint is one display-ready chart entry.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PresentationModel is the structured, already-formatted data a rendering
// surface consumes without further parsing. The rendering layer owns no
// mutation rights over it.
type PresentationModel struct {
	BestColumn  string        `json:"best_column"`
	Metrics     []MetricPoint `json:"metrics"`
	ChartSeries []SeriesPoint `json:"chart_series"`
	RawReport   string        `json:"raw_report"`
}

// ReportFilename returns the artifact name for a raw report captured at t,
// e.g. "mpie_report_202608301542.txt".
func ReportFilename(t time.Time) string {
	return fmt.Sprintf("mpie_report_%s.txt", t.Format("200601021504"))
}
