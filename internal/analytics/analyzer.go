package analytics

import (
	"sort"
	"time"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// StateBreakdown aggregates every entry of one state across a case's
// history. Closed-sample statistics (average/min/max) are computed
// over closed durations only; time accrued in a currently open entry
// is counted in TotalSeconds and reported separately as LiveSeconds so
// a fresh state is never mistaken for one with an average of zero.
type StateBreakdown struct {
	State          catalog.State `json:"state"`
	Label          string        `json:"label"`
	TotalSeconds   float64       `json:"total_seconds"`
	LiveSeconds    float64       `json:"live_seconds"`
	Occurrences    int           `json:"occurrences"`
	ClosedSamples  int           `json:"closed_samples"`
	AverageSeconds float64       `json:"average_seconds"`
	MinSeconds     float64       `json:"min_seconds"`
	MaxSeconds     float64       `json:"max_seconds"`
	PercentOfTotal float64       `json:"percent_of_total"`
}

// CurrentStatus describes where the case is right now.
type CurrentStatus struct {
	State       catalog.State `json:"state"`
	Actor       string        `json:"actor"`
	EnteredAt   time.Time     `json:"entered_at"`
	LiveSeconds float64       `json:"live_seconds"`
	SequenceNo  int           `json:"sequence_no"`
}

// CaseAnalysis is the read model the dashboard renders for one case.
// Field names and units (seconds, 0-100 percentages) are the contract
// with the presentation and export layers.
type CaseAnalysis struct {
	CaseID              string           `json:"case_id"`
	TotalElapsedSeconds float64          `json:"total_elapsed_seconds"`
	Completed           bool             `json:"completed"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	Breakdown           []StateBreakdown `json:"breakdown"`
	Current             *CurrentStatus   `json:"current,omitempty"`
	Bottlenecks         []StateBreakdown `json:"bottlenecks"`
}

// bottleneckCount is how many top states the dashboard highlights.
const bottleneckCount = 3

// Analyze turns a case's full history into its duration analysis.
// Pure function of (history, now): no clock reads, no storage access,
// same inputs always produce the same output. Empty history yields a
// zero analysis, not an error.
func Analyze(history []*ledger.TransitionEntry, now time.Time) CaseAnalysis {
	analysis := CaseAnalysis{
		Breakdown:   []StateBreakdown{},
		Bottlenecks: []StateBreakdown{},
	}
	if len(history) == 0 {
		return analysis
	}

	first := history[0]
	last := history[len(history)-1]
	analysis.CaseID = first.CaseID.String()

	if last.Open() {
		analysis.TotalElapsedSeconds = now.Sub(first.EnteredAt).Seconds()
	} else {
		analysis.TotalElapsedSeconds = last.ExitedAt.Sub(first.EnteredAt).Seconds()
		if last.NewState == catalog.StateFinalized {
			analysis.Completed = true
			analysis.CompletedAt = last.ExitedAt
		}
	}

	byState := make(map[catalog.State]*StateBreakdown)
	for _, entry := range history {
		b, ok := byState[entry.NewState]
		if !ok {
			b = &StateBreakdown{
				State: entry.NewState,
				Label: catalog.Label(entry.NewState),
			}
			byState[entry.NewState] = b
		}
		b.Occurrences++

		if entry.Open() {
			live := now.Sub(entry.EnteredAt).Seconds()
			b.LiveSeconds += live
			b.TotalSeconds += live
			continue
		}

		d := entry.ExitedAt.Sub(entry.EnteredAt).Seconds()
		if entry.DurationSeconds != nil {
			d = *entry.DurationSeconds
		}
		b.TotalSeconds += d
		if b.ClosedSamples == 0 || d < b.MinSeconds {
			b.MinSeconds = d
		}
		if d > b.MaxSeconds {
			b.MaxSeconds = d
		}
		b.ClosedSamples++
	}

	for _, b := range byState {
		if b.ClosedSamples > 0 {
			closedTotal := b.TotalSeconds - b.LiveSeconds
			b.AverageSeconds = closedTotal / float64(b.ClosedSamples)
		}
		if analysis.TotalElapsedSeconds > 0 {
			b.PercentOfTotal = b.TotalSeconds / analysis.TotalElapsedSeconds * 100
		}
		analysis.Breakdown = append(analysis.Breakdown, *b)
	}

	// Descending by total time; ties break on catalog declaration
	// order so output is deterministic regardless of map iteration.
	sort.Slice(analysis.Breakdown, func(i, j int) bool {
		bi, bj := analysis.Breakdown[i], analysis.Breakdown[j]
		if bi.TotalSeconds != bj.TotalSeconds {
			return bi.TotalSeconds > bj.TotalSeconds
		}
		return catalog.Order(bi.State) < catalog.Order(bj.State)
	})

	n := bottleneckCount
	if len(analysis.Breakdown) < n {
		n = len(analysis.Breakdown)
	}
	analysis.Bottlenecks = append(analysis.Bottlenecks, analysis.Breakdown[:n]...)

	current := &CurrentStatus{
		State:      last.NewState,
		Actor:      last.Actor,
		EnteredAt:  last.EnteredAt,
		SequenceNo: last.SequenceNo,
	}
	if last.Open() {
		current.LiveSeconds = now.Sub(last.EnteredAt).Seconds()
	}
	analysis.Current = current

	return analysis
}
