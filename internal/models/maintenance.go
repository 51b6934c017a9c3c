package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ScheduleStatus is the state of a planned maintenance
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusDone      ScheduleStatus = "done"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// ScheduledMaintenance is a maintenance planned for a date.
// Status only moves pending -> done (via completion) or pending -> cancelled.
type ScheduledMaintenance struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssetID       uint                        `gorm:"not null;index" json:"assetId"`
	TechnicianID  *uint                       `gorm:"index" json:"technicianId,omitempty"`
	ScheduledDate datatypes.Date              `gorm:"not null;index" json:"scheduledDate"`
	Status        ScheduleStatus              `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Description   string                      `gorm:"type:text" json:"description"`
	Tasks         datatypes.JSONSlice[string] `json:"tasks"`
	CompletedAt   *time.Time                  `json:"completedAt,omitempty"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`

	Asset *Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"asset,omitempty"`
}

// TableName specifies the table name for ScheduledMaintenance model
func (ScheduledMaintenance) TableName() string {
	return "scheduled_maintenances"
}

// MaintenanceType distinguishes planned from reactive work
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

// Valid reports whether t is a known type
func (t MaintenanceType) Valid() bool {
	return t == MaintenancePreventive || t == MaintenanceCorrective
}

// MaintenanceRecord is work actually performed on an asset
type MaintenanceRecord struct {
	ID                     uint                        `gorm:"primaryKey" json:"id"`
	AssetID                uint                        `gorm:"not null;index" json:"assetId"`
	TechnicianID           uint                        `gorm:"not null;index" json:"technicianId"`
	ScheduledMaintenanceID *uint                       `gorm:"index" json:"scheduledMaintenanceId,omitempty"`
	Type                   MaintenanceType             `gorm:"size:20;not null" json:"type"`
	ScheduledAt            *time.Time                  `json:"scheduledAt,omitempty"`
	ExecutedAt             time.Time                   `gorm:"not null;index" json:"executedAt"`
	Cost                   decimal.NullDecimal         `gorm:"type:numeric(12,2)" json:"cost"`
	PartsUsed              string                      `gorm:"type:text" json:"partsUsed"`
	DurationMinutes        *int                        `json:"durationMinutes,omitempty"`
	Notes                  string                      `gorm:"type:text" json:"notes"`
	TechnicalReport        string                      `gorm:"type:text" json:"technicalReport"`
	CompletedTasks         datatypes.JSONSlice[string] `json:"completedTasks"`
	CreatedAt              time.Time                   `json:"createdAt"`
	UpdatedAt              time.Time                   `json:"updatedAt"`

	Asset *Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"asset,omitempty"`
}

// TableName specifies the table name for MaintenanceRecord model
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}
