package ledger

import "errors"

var (
	// ErrCaseNotFound means the referenced case does not exist in the
	// case store.
	ErrCaseNotFound = errors.New("case not found")

	// ErrAlreadyInitialized means InitializeFirst was called for a case
	// that already has ledger entries.
	ErrAlreadyInitialized = errors.New("case ledger already initialized")

	// ErrTerminalState means the case's current state is Finalized and
	// no further transitions are permitted.
	ErrTerminalState = errors.New("case is finalized")

	// ErrConcurrentModification means a conflicting writer changed the
	// case's current entry between read and write. The service retries
	// a bounded number of times before surfacing it.
	ErrConcurrentModification = errors.New("concurrent ledger modification")

	// ErrUnknownState means the requested state is not in the catalog.
	// This is a programming or client error, never a data condition.
	ErrUnknownState = errors.New("unknown state")

	// ErrEmptyActor means the transition carried no operator name.
	ErrEmptyActor = errors.New("actor is required")
)
