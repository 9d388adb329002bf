package analytics

import (
	"fmt"
	"sort"
	"time"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
)

// RecommendationType classifies fleet report recommendations.
type RecommendationType string

const (
	RecommendationBottleneck RecommendationType = "bottleneck"
	RecommendationEfficiency RecommendationType = "efficiency"
	RecommendationLoad       RecommendationType = "load"
)

// Recommendation is one deterministic rule firing on fleet numbers.
type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Message string             `json:"message"`
}

// ReportWindow bounds which cases a fleet report covers.
type ReportWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FleetReport is the managerial summary over many cases.
type FleetReport struct {
	Window                   ReportWindow     `json:"window"`
	GeneratedAt              time.Time        `json:"generated_at"`
	TotalCases               int              `json:"total_cases"`
	CompletedCases           int              `json:"completed_cases"`
	ActiveCases              int              `json:"active_cases"`
	AverageCompletionSeconds float64          `json:"average_completion_seconds"`
	StatusPerformance        []StateBreakdown `json:"status_performance"`
	Recommendations          []Recommendation `json:"recommendations"`
}

// ReporterRules holds the thresholds the recommendation rules fire on.
type ReporterRules struct {
	BottleneckSharePercent float64
	SlowCompletion         time.Duration
	ActiveCaseLimit        int
}

// DefaultReporterRules returns the thresholds used in production.
func DefaultReporterRules() ReporterRules {
	return ReporterRules{
		BottleneckSharePercent: 40,
		SlowCompletion:         24 * time.Hour,
		ActiveCaseLimit:        25,
	}
}

// BuildFleetReport aggregates per-case analyses into a fleet-wide
// report. Percentages in StatusPerformance are recomputed against the
// fleet total, not carried over from the per-case analyses. Each
// recommendation rule is independent and order-stable; several may
// fire at once.
func BuildFleetReport(analyses []CaseAnalysis, window ReportWindow, now time.Time, rules ReporterRules) FleetReport {
	report := FleetReport{
		Window:            window,
		GeneratedAt:       now,
		TotalCases:        len(analyses),
		StatusPerformance: []StateBreakdown{},
		Recommendations:   []Recommendation{},
	}

	byState := make(map[catalog.State]*StateBreakdown)
	fleetTotal := 0.0
	completionTotal := 0.0

	for _, a := range analyses {
		if a.Completed && a.CompletedAt != nil && !a.CompletedAt.Before(window.Start) && !a.CompletedAt.After(window.End) {
			report.CompletedCases++
			completionTotal += a.TotalElapsedSeconds
		}
		fleetTotal += a.TotalElapsedSeconds

		for _, b := range a.Breakdown {
			agg, ok := byState[b.State]
			if !ok {
				agg = &StateBreakdown{State: b.State, Label: b.Label}
				byState[b.State] = agg
			}
			agg.TotalSeconds += b.TotalSeconds
			agg.LiveSeconds += b.LiveSeconds
			agg.Occurrences += b.Occurrences
			if b.ClosedSamples > 0 {
				if agg.ClosedSamples == 0 || b.MinSeconds < agg.MinSeconds {
					agg.MinSeconds = b.MinSeconds
				}
				if b.MaxSeconds > agg.MaxSeconds {
					agg.MaxSeconds = b.MaxSeconds
				}
				agg.ClosedSamples += b.ClosedSamples
			}
		}
	}

	report.ActiveCases = report.TotalCases - report.CompletedCases
	if report.CompletedCases > 0 {
		report.AverageCompletionSeconds = completionTotal / float64(report.CompletedCases)
	}

	for _, agg := range byState {
		if agg.ClosedSamples > 0 {
			agg.AverageSeconds = (agg.TotalSeconds - agg.LiveSeconds) / float64(agg.ClosedSamples)
		}
		if fleetTotal > 0 {
			agg.PercentOfTotal = agg.TotalSeconds / fleetTotal * 100
		}
		report.StatusPerformance = append(report.StatusPerformance, *agg)
	}
	sort.Slice(report.StatusPerformance, func(i, j int) bool {
		si, sj := report.StatusPerformance[i], report.StatusPerformance[j]
		if si.TotalSeconds != sj.TotalSeconds {
			return si.TotalSeconds > sj.TotalSeconds
		}
		return catalog.Order(si.State) < catalog.Order(sj.State)
	})

	report.Recommendations = evaluateRules(report, rules)
	return report
}

// evaluateRules runs the recommendation rules in a fixed order. No
// rule mutates the report.
func evaluateRules(report FleetReport, rules ReporterRules) []Recommendation {
	recs := []Recommendation{}

	if len(report.StatusPerformance) > 0 {
		top := report.StatusPerformance[0]
		if top.PercentOfTotal > rules.BottleneckSharePercent {
			recs = append(recs, Recommendation{
				Type: RecommendationBottleneck,
				Message: fmt.Sprintf("%s consumes %.1f%% of fleet time; review staffing and hand-off delays for this stage",
					top.Label, top.PercentOfTotal),
			})
		}
	}

	if report.CompletedCases > 0 && report.AverageCompletionSeconds > rules.SlowCompletion.Seconds() {
		recs = append(recs, Recommendation{
			Type: RecommendationEfficiency,
			Message: fmt.Sprintf("Average completion time is %.1f hours, above the %.0f hour target",
				report.AverageCompletionSeconds/3600, rules.SlowCompletion.Hours()),
		})
	}

	if report.ActiveCases > rules.ActiveCaseLimit {
		recs = append(recs, Recommendation{
			Type: RecommendationLoad,
			Message: fmt.Sprintf("%d cases are still active, above the %d case limit; consider redistributing open incidents",
				report.ActiveCases, rules.ActiveCaseLimit),
		})
	}

	return recs
}
