package models

import "time"

// AssetHistoryEntry is an append-only audit row for an asset.
// Rows are never updated or deleted except by cascading asset removal.
type AssetHistoryEntry struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	AssetID           uint      `gorm:"not null;index" json:"assetId"`
	UserID            uint      `gorm:"not null" json:"userId"`
	Action            string    `gorm:"size:100;not null" json:"action"`
	Description       string    `gorm:"type:text" json:"description"`
	ResponsibleBefore *uint     `json:"responsibleBefore,omitempty"`
	ResponsibleAfter  *uint     `json:"responsibleAfter,omitempty"`
	AreaBefore        *uint     `json:"areaBefore,omitempty"`
	AreaAfter         *uint     `json:"areaAfter,omitempty"`
	StatusBefore      string    `gorm:"size:20" json:"statusBefore,omitempty"`
	StatusAfter       string    `gorm:"size:20" json:"statusAfter,omitempty"`
	CreatedAt         time.Time `gorm:"index" json:"createdAt"`

	Asset *Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AssetHistoryEntry model
func (AssetHistoryEntry) TableName() string {
	return "asset_history"
}
