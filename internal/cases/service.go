package cases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// ErrCaseNotFound mirrors the ledger's taxonomy for case lookups made
// directly against the case store.
var ErrCaseNotFound = errors.New("case not found")

// TransitionLedger is the slice of the ledger the case store drives:
// the implicit first entry on creation and the cascade on deletion.
type TransitionLedger interface {
	InitializeFirst(ctx context.Context, caseID uuid.UUID, initialState catalog.State, actor, notes string) (*ledger.TransitionEntry, error)
	DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error
}

// CreateCaseRequest is the payload for POST /cases.
type CreateCaseRequest struct {
	VehiclePlate string `json:"vehicle_plate" binding:"required"`
	DriverName   string `json:"driver_name" binding:"required"`
	Description  string `json:"description"`
	Location     string `json:"location"` // GeoJSON point, optional
	InitialState string `json:"initial_state"`
	CreatedBy    string `json:"created_by"`
}

// UpdateCaseRequest is the payload for PUT /cases/:id. Status is not
// here: state changes go through the ledger, never through case CRUD.
type UpdateCaseRequest struct {
	VehiclePlate *string `json:"vehicle_plate"`
	DriverName   *string `json:"driver_name"`
	Description  *string `json:"description"`
}

// Service owns case metadata and drives the ledger's lifecycle hooks.
type Service struct {
	repo   Repository
	ledger TransitionLedger
	logger *zap.Logger
}

// NewService creates a new case service.
func NewService(repo Repository, l TransitionLedger, logger *zap.Logger) *Service {
	return &Service{repo: repo, ledger: l, logger: logger}
}

// CreateCase persists the case and records its first ledger entry with
// the creator as actor. The initial state defaults to the catalog's
// first state when the request leaves it empty.
func (s *Service) CreateCase(ctx context.Context, req CreateCaseRequest) (*Case, error) {
	initial := catalog.StateAwaitingTechnician
	if req.InitialState != "" {
		parsed, err := catalog.Parse(req.InitialState)
		if err != nil {
			return nil, ledger.ErrUnknownState
		}
		initial = parsed
	}

	c := &Case{
		ID:           uuid.New(),
		VehiclePlate: req.VehiclePlate,
		DriverName:   req.DriverName,
		Description:  req.Description,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if req.Location != "" {
		c.Location = []byte(req.Location)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if _, err := s.ledger.InitializeFirst(ctx, c.ID, initial, req.CreatedBy, "case created"); err != nil {
		s.logger.Error("Failed to initialize case ledger",
			zap.String("case_id", c.ID.String()), zap.Error(err))
		// Roll the row back so no case exists without a ledger.
		if delErr := s.repo.Delete(ctx, c.ID); delErr != nil {
			s.logger.Error("Failed to roll back case after ledger init failure",
				zap.String("case_id", c.ID.String()), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Case created",
		zap.String("case_id", c.ID.String()),
		zap.String("vehicle_plate", c.VehiclePlate),
		zap.String("initial_state", string(initial)))
	return c, nil
}

// GetCase returns one case or ErrCaseNotFound.
func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

// ListCases returns cases matching the filter, newest first.
func (s *Service) ListCases(ctx context.Context, filter CaseFilter) ([]*Case, error) {
	return s.repo.List(ctx, filter)
}

// UpdateCase updates metadata fields only.
func (s *Service) UpdateCase(ctx context.Context, id uuid.UUID, req UpdateCaseRequest) (*Case, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.VehiclePlate != nil {
		c.VehiclePlate = *req.VehiclePlate
	}
	if req.DriverName != nil {
		c.DriverName = *req.DriverName
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCase removes the case and cascades to its ledger entries.
func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	if err := s.ledger.DeleteCaseEntries(ctx, c.ID); err != nil {
		s.logger.Error("Failed to cascade ledger delete",
			zap.String("case_id", c.ID.String()), zap.Error(err))
		return err
	}

	s.logger.Info("Case deleted", zap.String("case_id", c.ID.String()))
	return nil
}

// MarkClosed flips the closed flag when the case reaches a terminal
// ledger state. Implements ledger event consumption; idempotent.
func (s *Service) MarkClosed(ctx context.Context, id uuid.UUID, at time.Time) error {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return err
	}
	if c.Closed {
		return nil
	}
	c.Closed = true
	c.ClosedAt = &at
	c.UpdatedAt = time.Now()
	return s.repo.Update(ctx, c)
}
