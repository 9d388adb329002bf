package ledger

import (
	"time"

	"github.com/google/uuid"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
)

// TransitionEntry is one row of the ledger: one occupied state for one
// case. A case's history is the gapless run of entries with
// SequenceNo 1..N; at most one entry per case is open (ExitedAt nil)
// at any time.
type TransitionEntry struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	CaseID        uuid.UUID      `db:"case_id" json:"case_id"`
	SequenceNo    int            `db:"sequence_no" json:"sequence_no"`
	PreviousState *catalog.State `db:"previous_state" json:"previous_state,omitempty"`
	NewState      catalog.State  `db:"new_state" json:"new_state"`
	Actor         string         `db:"actor" json:"actor"`
	EnteredAt     time.Time      `db:"entered_at" json:"entered_at"`
	ExitedAt      *time.Time     `db:"exited_at" json:"exited_at,omitempty"`
	// DurationSeconds is derived at close time and undefined while the
	// entry is open.
	DurationSeconds *float64 `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Notes           string   `db:"notes" json:"notes,omitempty"`
}

// Open reports whether the entry is the case's current state.
func (e *TransitionEntry) Open() bool {
	return e.ExitedAt == nil
}

// CloseAt stamps the exit time and derived duration.
func (e *TransitionEntry) CloseAt(t time.Time) {
	exited := t
	secs := t.Sub(e.EnteredAt).Seconds()
	e.ExitedAt = &exited
	e.DurationSeconds = &secs
}

// TransitionRequest is the payload for POST /cases/:id/transitions.
type TransitionRequest struct {
	NewState string `json:"new_state" binding:"required"`
	Actor    string `json:"actor"`
	Notes    string `json:"notes"`
}
