package models

import "time"

// NotificationKind groups notifications by origin
type NotificationKind string

const (
	NotificationRequest     NotificationKind = "request"
	NotificationMaintenance NotificationKind = "maintenance"
	NotificationAssignment  NotificationKind = "assignment"
	NotificationAlert       NotificationKind = "alert"
	NotificationSystem      NotificationKind = "system"
)

// Notification is queued for a user; delivery happens out of process
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"userId"`
	Kind      NotificationKind `gorm:"size:20;not null" json:"kind"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Body      string           `gorm:"type:text;not null" json:"body"`
	Link      string           `gorm:"size:500" json:"link,omitempty"`
	RefID     *uint            `json:"refId,omitempty"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time       `json:"readAt,omitempty"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
