package cases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, c *Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Case), args.Error(1)
}

func (m *MockRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, c *Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter CaseFilter) ([]*Case, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*Case), args.Error(1)
}

// MockLedger is a mock implementation of the TransitionLedger interface
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) InitializeFirst(ctx context.Context, caseID uuid.UUID, initialState catalog.State, actor, notes string) (*ledger.TransitionEntry, error) {
	args := m.Called(ctx, caseID, initialState, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransitionEntry), args.Error(1)
}

func (m *MockLedger) DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func TestCreateCaseInitializesLedger(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := NewService(mockRepo, mockLedger, zap.NewNop())

	ctx := context.Background()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*cases.Case")).Return(nil)
	mockLedger.On("InitializeFirst", ctx, mock.AnythingOfType("uuid.UUID"),
		catalog.StateAwaitingTechnician, "dispatch", "case created").
		Return(&ledger.TransitionEntry{SequenceNo: 1}, nil)

	created, err := service.CreateCase(ctx, CreateCaseRequest{
		VehiclePlate: "ABC-1234",
		DriverName:   "Silva",
		CreatedBy:    "dispatch",
	})

	require.NoError(t, err)
	assert.Equal(t, "ABC-1234", created.VehiclePlate)
	assert.False(t, created.Closed)
	mockRepo.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestCreateCaseRollsBackWhenLedgerInitFails(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := NewService(mockRepo, mockLedger, zap.NewNop())

	ctx := context.Background()
	initErr := errors.New("ledger unavailable")
	mockRepo.On("Create", ctx, mock.AnythingOfType("*cases.Case")).Return(nil)
	mockLedger.On("InitializeFirst", ctx, mock.AnythingOfType("uuid.UUID"),
		catalog.StateAwaitingTechnician, "dispatch", "case created").
		Return(nil, initErr)
	mockRepo.On("Delete", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	_, err := service.CreateCase(ctx, CreateCaseRequest{
		VehiclePlate: "ABC-1234",
		DriverName:   "Silva",
		CreatedBy:    "dispatch",
	})

	assert.ErrorIs(t, err, initErr)
	mockRepo.AssertCalled(t, "Delete", ctx, mock.AnythingOfType("uuid.UUID"))
}

func TestCreateCaseRejectsUnknownInitialState(t *testing.T) {
	service := NewService(new(MockRepository), new(MockLedger), zap.NewNop())

	_, err := service.CreateCase(context.Background(), CreateCaseRequest{
		VehiclePlate: "ABC-1234",
		DriverName:   "Silva",
		CreatedBy:    "dispatch",
		InitialState: "TOWED",
	})
	assert.ErrorIs(t, err, ledger.ErrUnknownState)
}

func TestDeleteCaseCascadesToLedger(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := NewService(mockRepo, mockLedger, zap.NewNop())

	ctx := context.Background()
	caseID := uuid.New()
	mockRepo.On("GetByID", ctx, caseID).Return(&Case{ID: caseID}, nil)
	mockRepo.On("Delete", ctx, caseID).Return(nil)
	mockLedger.On("DeleteCaseEntries", ctx, caseID).Return(nil)

	require.NoError(t, service.DeleteCase(ctx, caseID))
	mockRepo.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestGetCaseNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, new(MockLedger), zap.NewNop())

	ctx := context.Background()
	caseID := uuid.New()
	mockRepo.On("GetByID", ctx, caseID).Return(nil, nil)

	_, err := service.GetCase(ctx, caseID)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestMarkClosedIsIdempotent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, new(MockLedger), zap.NewNop())

	ctx := context.Background()
	caseID := uuid.New()
	closedAt := time.Now()
	mockRepo.On("GetByID", ctx, caseID).Return(&Case{ID: caseID, Closed: true, ClosedAt: &closedAt}, nil)

	// Already closed: no Update call expected.
	require.NoError(t, service.MarkClosed(ctx, caseID, time.Now()))
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestCloserMarksCaseClosedOnFinalized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, new(MockLedger), zap.NewNop())
	closer := NewCloser(service, zap.NewNop())

	caseID := uuid.New()
	enteredAt := time.Now()
	mockRepo.On("GetByID", mock.Anything, caseID).Return(&Case{ID: caseID}, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *Case) bool {
		return c.Closed && c.ClosedAt != nil && c.ClosedAt.Equal(enteredAt)
	})).Return(nil)

	closer.TransitionRecorded(&ledger.TransitionEntry{
		CaseID:    caseID,
		NewState:  catalog.StateFinalized,
		EnteredAt: enteredAt,
	})
	mockRepo.AssertExpectations(t)
}

func TestCloserIgnoresNonTerminalStates(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, new(MockLedger), zap.NewNop())
	closer := NewCloser(service, zap.NewNop())

	closer.TransitionRecorded(&ledger.TransitionEntry{
		CaseID:   uuid.New(),
		NewState: catalog.StateInMaintenance,
	})
	mockRepo.AssertNotCalled(t, "GetByID")
}
