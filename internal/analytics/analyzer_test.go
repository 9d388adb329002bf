package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// entry builds a closed or open history row. exitOffset < 0 leaves the
// entry open.
func entry(caseID uuid.UUID, seq int, state catalog.State, enterOffset, exitOffset time.Duration) *ledger.TransitionEntry {
	e := &ledger.TransitionEntry{
		ID:         uuid.New(),
		CaseID:     caseID,
		SequenceNo: seq,
		NewState:   state,
		Actor:      "garcia",
		EnteredAt:  t0.Add(enterOffset),
	}
	if exitOffset >= 0 {
		e.CloseAt(t0.Add(exitOffset))
	}
	return e
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	analysis := Analyze(nil, t0)
	assert.Zero(t, analysis.TotalElapsedSeconds)
	assert.Empty(t, analysis.Breakdown)
	assert.Empty(t, analysis.Bottlenecks)
	assert.Nil(t, analysis.Current)
}

func TestAnalyzeCompletedCase(t *testing.T) {
	// Case starts AwaitingTechnician at t=0, moves to AwaitingMechanic
	// at t=600s, finalizes at t=900s.
	caseID := uuid.New()
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingTechnician, 0, 600*time.Second),
		entry(caseID, 2, catalog.StateAwaitingMechanic, 600*time.Second, 900*time.Second),
		entry(caseID, 3, catalog.StateFinalized, 900*time.Second, 900*time.Second),
	}

	analysis := Analyze(history, t0.Add(2*time.Hour))

	assert.InDelta(t, 900, analysis.TotalElapsedSeconds, 0.001)
	assert.True(t, analysis.Completed)

	require.Len(t, analysis.Breakdown, 3)
	assert.Equal(t, catalog.StateAwaitingTechnician, analysis.Breakdown[0].State)
	assert.InDelta(t, 600, analysis.Breakdown[0].TotalSeconds, 0.001)
	assert.InDelta(t, 66.7, analysis.Breakdown[0].PercentOfTotal, 0.05)
	assert.Equal(t, catalog.StateAwaitingMechanic, analysis.Breakdown[1].State)
	assert.InDelta(t, 300, analysis.Breakdown[1].TotalSeconds, 0.001)
	assert.InDelta(t, 33.3, analysis.Breakdown[1].PercentOfTotal, 0.05)
}

func TestAnalyzeSumAndPercentageLaws(t *testing.T) {
	caseID := uuid.New()
	now := t0.Add(75 * time.Minute)
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingTechnician, 0, 10*time.Minute),
		entry(caseID, 2, catalog.StateAwaitingMechanic, 10*time.Minute, 40*time.Minute),
		entry(caseID, 3, catalog.StateInMaintenance, 40*time.Minute, 60*time.Minute),
		entry(caseID, 4, catalog.StateAwaitingMechanic, 60*time.Minute, -1),
	}

	analysis := Analyze(history, now)

	// Sum law: closed durations plus the live duration equal the total.
	var sum float64
	for _, e := range history {
		if e.DurationSeconds != nil {
			sum += *e.DurationSeconds
		}
	}
	sum += analysis.Current.LiveSeconds
	assert.InDelta(t, analysis.TotalElapsedSeconds, sum, 0.001)

	// Percentage law: percentages sum to 100.
	var pct float64
	for _, b := range analysis.Breakdown {
		pct += b.PercentOfTotal
	}
	assert.InDelta(t, 100, pct, 0.001)
}

func TestAnalyzeLiveDurationSeparateFromClosedStats(t *testing.T) {
	caseID := uuid.New()
	now := t0.Add(20 * time.Minute)
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingTechnician, 0, -1),
	}

	analysis := Analyze(history, now)

	require.Len(t, analysis.Breakdown, 1)
	b := analysis.Breakdown[0]
	assert.InDelta(t, 1200, b.TotalSeconds, 0.001)
	assert.InDelta(t, 1200, b.LiveSeconds, 0.001)
	// No closed samples: stats are zero, not a misleading average.
	assert.Zero(t, b.ClosedSamples)
	assert.Zero(t, b.AverageSeconds)
	assert.Zero(t, b.MinSeconds)
	assert.Zero(t, b.MaxSeconds)

	require.NotNil(t, analysis.Current)
	assert.InDelta(t, 1200, analysis.Current.LiveSeconds, 0.001)
	assert.Equal(t, 1, analysis.Current.SequenceNo)
}

func TestAnalyzeRepeatedStateAggregates(t *testing.T) {
	caseID := uuid.New()
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingMechanic, 0, 5*time.Minute),
		entry(caseID, 2, catalog.StateInMaintenance, 5*time.Minute, 10*time.Minute),
		entry(caseID, 3, catalog.StateAwaitingMechanic, 10*time.Minute, 25*time.Minute),
		entry(caseID, 4, catalog.StateFinalized, 25*time.Minute, 25*time.Minute),
	}

	analysis := Analyze(history, t0.Add(time.Hour))

	var mech *StateBreakdown
	for i := range analysis.Breakdown {
		if analysis.Breakdown[i].State == catalog.StateAwaitingMechanic {
			mech = &analysis.Breakdown[i]
		}
	}
	require.NotNil(t, mech)
	assert.Equal(t, 2, mech.Occurrences)
	assert.Equal(t, 2, mech.ClosedSamples)
	assert.InDelta(t, 1200, mech.TotalSeconds, 0.001)
	assert.InDelta(t, 600, mech.AverageSeconds, 0.001)
	assert.InDelta(t, 300, mech.MinSeconds, 0.001)
	assert.InDelta(t, 900, mech.MaxSeconds, 0.001)
}

func TestAnalyzeTieBreaksOnCatalogOrder(t *testing.T) {
	caseID := uuid.New()
	// Both states consume exactly 10 minutes.
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateNoEstimate, 0, 10*time.Minute),
		entry(caseID, 2, catalog.StateAwaitingMechanic, 10*time.Minute, 20*time.Minute),
		entry(caseID, 3, catalog.StateFinalized, 20*time.Minute, 20*time.Minute),
	}

	analysis := Analyze(history, t0.Add(time.Hour))

	require.Len(t, analysis.Breakdown, 3)
	// AwaitingMechanic declares before NoEstimate in the catalog.
	assert.Equal(t, catalog.StateAwaitingMechanic, analysis.Breakdown[0].State)
	assert.Equal(t, catalog.StateNoEstimate, analysis.Breakdown[1].State)
}

func TestAnalyzeBottlenecksAreTopThree(t *testing.T) {
	caseID := uuid.New()
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingTechnician, 0, 40*time.Minute),
		entry(caseID, 2, catalog.StateAwaitingMechanic, 40*time.Minute, 70*time.Minute),
		entry(caseID, 3, catalog.StateInMaintenance, 70*time.Minute, 90*time.Minute),
		entry(caseID, 4, catalog.StateTripRestarting, 90*time.Minute, 95*time.Minute),
		entry(caseID, 5, catalog.StateFinalized, 95*time.Minute, 95*time.Minute),
	}

	analysis := Analyze(history, t0.Add(2*time.Hour))

	require.Len(t, analysis.Bottlenecks, 3)
	assert.Equal(t, analysis.Breakdown[:3], analysis.Bottlenecks)
	assert.Equal(t, catalog.StateAwaitingTechnician, analysis.Bottlenecks[0].State)
}

func TestAnalyzeIsPure(t *testing.T) {
	caseID := uuid.New()
	now := t0.Add(45 * time.Minute)
	history := []*ledger.TransitionEntry{
		entry(caseID, 1, catalog.StateAwaitingTechnician, 0, 15*time.Minute),
		entry(caseID, 2, catalog.StateInMaintenance, 15*time.Minute, -1),
	}

	first := Analyze(history, now)
	second := Analyze(history, now)
	assert.Equal(t, first, second)
}
