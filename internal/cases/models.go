package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Case represents one tracked logistics incident: a vehicle breakdown
// with an opaque identifier. Operational state lives in the transition
// ledger; the case row carries metadata and the closed flag only.
type Case struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VehiclePlate string         `gorm:"not null;index" json:"vehicle_plate"`
	DriverName   string         `gorm:"not null" json:"driver_name"`
	Description  string         `json:"description"`
	Location     datatypes.JSON `json:"location"` // breakdown coordinates as GeoJSON point
	CreatedBy    string         `gorm:"not null" json:"created_by"`
	Closed       bool           `gorm:"not null;default:false;index" json:"closed"`
	ClosedAt     *time.Time     `json:"closed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// CaseFilter narrows ListCases.
type CaseFilter struct {
	Closed        *bool
	VehiclePlate  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}
