package models

import "time"

// Assignment records an asset handed to an employee.
// At most one row per asset may have ReturnedAt == nil; the database
// enforces this with the partial unique index ux_assignments_open_asset.
type Assignment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	AssetID          uint       `gorm:"not null;index" json:"assetId"`
	EmployeeID       uint       `gorm:"not null;index" json:"employeeId"`
	IssuedByUserID   uint       `gorm:"not null" json:"issuedByUserId"`
	ReceivedByUserID *uint      `json:"receivedByUserId,omitempty"`
	AssignedAt       time.Time  `gorm:"not null;index" json:"assignedAt"`
	ReturnedAt       *time.Time `json:"returnedAt,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`

	Asset    *Asset    `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"asset,omitempty"`
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName specifies the table name for Assignment model
func (Assignment) TableName() string {
	return "assignments"
}

// IsOpen reports whether the asset is still held
func (a *Assignment) IsOpen() bool {
	return a.ReturnedAt == nil
}
