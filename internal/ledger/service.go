package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
)

// maxRetries bounds transparent retries on concurrent modification
// before the conflict is surfaced to the caller.
const maxRetries = 3

// CaseStore is the slice of the case module the ledger depends on.
type CaseStore interface {
	Exists(ctx context.Context, caseID uuid.UUID) (bool, error)
}

// EventSink receives transition events for fan-out to dashboard
// clients. The ledger never blocks on it.
type EventSink interface {
	TransitionRecorded(entry *TransitionEntry)
}

// Service provides the transition ledger operations: recording state
// changes under per-case serialization and serving histories to the
// analytics layer.
type Service struct {
	repo   Repository
	cases  CaseStore
	events EventSink
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository, cases CaseStore, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cases:  cases,
		logger: logger,
		now:    time.Now,
	}
}

// AttachSink wires the event fan-out. Called once during startup,
// before the service starts taking requests.
func (s *Service) AttachSink(sink EventSink) {
	s.events = sink
}

// Transition closes the case's open entry and opens the next one.
// Exactly one close and one insert happen per successful call. Fails
// with ErrTerminalState once the case has reached Finalized, and with
// ErrConcurrentModification if a conflicting writer wins all retry
// attempts. Out-of-graph transitions are logged and allowed: operators
// need override power for exceptional cases.
func (s *Service) Transition(ctx context.Context, caseID uuid.UUID, newState catalog.State, actor, notes string) (*TransitionEntry, error) {
	if err := s.validate(ctx, caseID, newState, actor); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		entry, err := s.attemptTransition(ctx, caseID, newState, actor, notes)
		if err == nil {
			if s.events != nil {
				s.events.TransitionRecorded(entry)
			}
			return entry, nil
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("Retrying transition after write conflict",
			zap.String("case_id", caseID.String()),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (s *Service) attemptTransition(ctx context.Context, caseID uuid.UUID, newState catalog.State, actor, notes string) (*TransitionEntry, error) {
	current, err := s.repo.LatestEntry(ctx, caseID)
	if err != nil {
		return nil, err
	}

	expectedSeq := 0
	var previous *catalog.State
	if current != nil {
		if current.NewState == catalog.StateFinalized {
			return nil, ErrTerminalState
		}
		expectedSeq = current.SequenceNo
		prev := current.NewState
		previous = &prev

		if !catalog.IsValidTransition(current.NewState, newState) {
			s.logger.Warn("Transition outside the adjacency graph",
				zap.String("case_id", caseID.String()),
				zap.String("from", string(current.NewState)),
				zap.String("to", string(newState)),
				zap.String("actor", actor))
		}
	}

	now := s.now()
	next := &TransitionEntry{
		ID:            uuid.New(),
		CaseID:        caseID,
		SequenceNo:    expectedSeq + 1,
		PreviousState: previous,
		NewState:      newState,
		Actor:         actor,
		EnteredAt:     now,
		Notes:         notes,
	}
	if catalog.IsTerminal(newState) {
		// A terminal entry is closed on arrival: the case stops
		// accruing time and its ledger becomes read-only.
		next.CloseAt(now)
	}

	if err := s.repo.CloseAndAppend(ctx, caseID, expectedSeq, now, next); err != nil {
		return nil, err
	}

	s.logger.Info("Transition recorded",
		zap.String("case_id", caseID.String()),
		zap.Int("sequence_no", next.SequenceNo),
		zap.String("new_state", string(newState)),
		zap.String("actor", actor))
	return next, nil
}

// InitializeFirst records the case's first entry. Fails with
// ErrAlreadyInitialized if the case already has a ledger. Called by
// the case store when a case enters the system.
func (s *Service) InitializeFirst(ctx context.Context, caseID uuid.UUID, initialState catalog.State, actor, notes string) (*TransitionEntry, error) {
	if err := s.validate(ctx, caseID, initialState, actor); err != nil {
		return nil, err
	}

	current, err := s.repo.LatestEntry(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrAlreadyInitialized
	}

	now := s.now()
	entry := &TransitionEntry{
		ID:         uuid.New(),
		CaseID:     caseID,
		SequenceNo: 1,
		NewState:   initialState,
		Actor:      actor,
		EnteredAt:  now,
		Notes:      notes,
	}
	if catalog.IsTerminal(initialState) {
		entry.CloseAt(now)
	}
	if err := s.repo.CloseAndAppend(ctx, caseID, 0, now, entry); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			// A racing initializer inserted sequence 1 first.
			return nil, ErrAlreadyInitialized
		}
		return nil, err
	}

	if s.events != nil {
		s.events.TransitionRecorded(entry)
	}
	s.logger.Info("Case ledger initialized",
		zap.String("case_id", caseID.String()),
		zap.String("initial_state", string(initialState)))
	return entry, nil
}

// CurrentEntry returns the case's latest entry (open if the case is
// still advancing, the closed Finalized entry once it is not), or nil
// if the case has no ledger yet. Read-only; callers use it as the
// idempotency check before retrying a timed-out Transition.
func (s *Service) CurrentEntry(ctx context.Context, caseID uuid.UUID) (*TransitionEntry, error) {
	return s.repo.LatestEntry(ctx, caseID)
}

// FullHistory returns the case's entries ascending by sequence number.
func (s *Service) FullHistory(ctx context.Context, caseID uuid.UUID) ([]*TransitionEntry, error) {
	return s.repo.FullHistory(ctx, caseID)
}

// DeleteCaseEntries removes the ledger of a deleted case.
func (s *Service) DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error {
	return s.repo.DeleteCaseEntries(ctx, caseID)
}

func (s *Service) validate(ctx context.Context, caseID uuid.UUID, state catalog.State, actor string) error {
	if !catalog.IsValid(state) {
		return ErrUnknownState
	}
	if strings.TrimSpace(actor) == "" {
		return ErrEmptyActor
	}
	exists, err := s.cases.Exists(ctx, caseID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCaseNotFound
	}
	return nil
}
