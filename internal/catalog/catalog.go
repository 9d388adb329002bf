package catalog

import "fmt"

// State is one value of the fixed operational-status enumeration a
// case occupies. The set is closed: handlers parse incoming strings
// through Parse and everything downstream works with State values.
type State string

const (
	StateAwaitingTechnician State = "AWAITING_TECHNICIAN"
	StateAwaitingMechanic   State = "AWAITING_MECHANIC"
	StateInMaintenance      State = "IN_MAINTENANCE"
	StateNoEstimate         State = "NO_ESTIMATE"
	StateTransferPreparing  State = "TRANSFER_PREPARING"
	StateTransferInProgress State = "TRANSFER_IN_PROGRESS"
	StateTransferDone       State = "TRANSFER_DONE"
	StateTripRestarting     State = "TRIP_RESTARTING"
	StateFinalized          State = "FINALIZED"
)

// Category groups states for dashboard filtering.
type Category string

const (
	CategoryInitial      Category = "initial"
	CategoryIntermediate Category = "intermediate"
	CategoryTransfer     Category = "transfer"
	CategoryFinal        Category = "final"
)

type stateInfo struct {
	label    string
	category Category
	order    int
}

// states is the single source of truth for state metadata. Declaration
// order doubles as the deterministic tie-break order used by the
// analyzer when two states consumed the same total time.
var states = map[State]stateInfo{
	StateAwaitingTechnician: {label: "Awaiting Technician", category: CategoryInitial, order: 0},
	StateAwaitingMechanic:   {label: "Awaiting Mechanic", category: CategoryIntermediate, order: 1},
	StateInMaintenance:      {label: "In Maintenance", category: CategoryIntermediate, order: 2},
	StateNoEstimate:         {label: "No Estimate", category: CategoryIntermediate, order: 3},
	StateTransferPreparing:  {label: "Preparing Transfer", category: CategoryTransfer, order: 4},
	StateTransferInProgress: {label: "Transfer In Progress", category: CategoryTransfer, order: 5},
	StateTransferDone:       {label: "Transfer Done", category: CategoryTransfer, order: 6},
	StateTripRestarting:     {label: "Trip Restarting", category: CategoryTransfer, order: 7},
	StateFinalized:          {label: "Finalized", category: CategoryFinal, order: 8},
}

// transitions is the directed adjacency table: which states may follow
// which. Finalized has an empty reachable set and is terminal. The
// table is advisory for the ledger (out-of-graph transitions are
// logged, not rejected) but binding for Finalized.
var transitions = map[State][]State{
	StateAwaitingTechnician: {StateAwaitingMechanic, StateNoEstimate, StateTransferPreparing},
	StateAwaitingMechanic:   {StateInMaintenance, StateNoEstimate, StateTransferPreparing},
	StateInMaintenance:      {StateTripRestarting, StateNoEstimate, StateTransferPreparing},
	StateNoEstimate:         {StateAwaitingMechanic, StateTransferPreparing},
	StateTransferPreparing:  {StateTransferInProgress},
	StateTransferInProgress: {StateTransferDone},
	StateTransferDone:       {StateInMaintenance, StateTripRestarting},
	StateTripRestarting:     {StateFinalized},
	StateFinalized:          {},
}

// IsValid reports whether s is a member of the catalog.
func IsValid(s State) bool {
	_, ok := states[s]
	return ok
}

// Parse converts a raw string into a State, failing on unknown values.
func Parse(raw string) (State, error) {
	s := State(raw)
	if !IsValid(s) {
		return "", fmt.Errorf("unknown state %q", raw)
	}
	return s, nil
}

// IsValidTransition checks the adjacency table.
func IsValidTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReachableFrom returns a copy of the states directly reachable from s.
func ReachableFrom(s State) []State {
	allowed := transitions[s]
	out := make([]State, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether s has an empty reachable set.
func IsTerminal(s State) bool {
	return len(transitions[s]) == 0 && IsValid(s)
}

// CategoryOf returns the dashboard category of s.
func CategoryOf(s State) Category {
	return states[s].category
}

// Label returns the display label of s.
func Label(s State) string {
	return states[s].label
}

// Order returns the declaration position of s, used as a deterministic
// tie-break when sorting analytics breakdowns.
func Order(s State) int {
	info, ok := states[s]
	if !ok {
		return len(states)
	}
	return info.order
}

// All returns every state in declaration order.
func All() []State {
	out := make([]State, len(states))
	for s, info := range states {
		out[info.order] = s
	}
	return out
}
