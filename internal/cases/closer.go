package cases

import (
	"context"

	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// Closer flips a case's closed flag when its ledger reaches the
// terminal state. Wired into the ledger as an event sink so case CRUD
// callers never set the flag themselves.
type Closer struct {
	service *Service
	logger  *zap.Logger
}

// NewCloser creates a Closer over the case service.
func NewCloser(service *Service, logger *zap.Logger) *Closer {
	return &Closer{service: service, logger: logger}
}

// TransitionRecorded implements ledger.EventSink.
func (c *Closer) TransitionRecorded(entry *ledger.TransitionEntry) {
	if entry.NewState != catalog.StateFinalized {
		return
	}
	if err := c.service.MarkClosed(context.Background(), entry.CaseID, entry.EnteredAt); err != nil {
		c.logger.Error("Failed to mark case closed",
			zap.String("case_id", entry.CaseID.String()), zap.Error(err))
	}
}
