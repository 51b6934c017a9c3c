package models

import (
	"time"
)

// User represents a login account.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CompanyID uint       `gorm:"not null;index" json:"companyId"`
	Email     string     `gorm:"size:150;unique;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	Name      string     `gorm:"size:150" json:"name,omitempty"`
	Role      string     `gorm:"size:30;not null;default:'technician'" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Company{},
		&Site{},
		&Area{},
		&Category{},
		&Employee{},
		&User{},
		&Asset{},
		&AssetQR{},
		&Warranty{},
		&Assignment{},
		&ScheduledMaintenance{},
		&MaintenanceRecord{},
		&AssetHistoryEntry{},
		&Notification{},
		&Request{},
	}
}
