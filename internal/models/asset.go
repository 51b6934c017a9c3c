package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus is the lifecycle state of an asset
type AssetStatus string

const (
	AssetStatusActive        AssetStatus = "active"
	AssetStatusInMaintenance AssetStatus = "in_maintenance"
	AssetStatusRetired       AssetStatus = "retired"
	AssetStatusLost          AssetStatus = "lost"
)

// Valid reports whether s is a known status
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusActive, AssetStatusInMaintenance, AssetStatusRetired, AssetStatusLost:
		return true
	}
	return false
}

// Asset is a physical item owned by a company.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Asset struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	CompanyID     uint                `gorm:"not null;index" json:"companyId"`
	Code          string              `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name          string              `gorm:"size:150;not null" json:"name"`
	Description   string              `gorm:"type:text" json:"description"`
	CategoryID    *uint               `gorm:"index" json:"categoryId,omitempty"`
	SiteID        *uint               `gorm:"index" json:"siteId,omitempty"`
	AreaID        *uint               `gorm:"index" json:"areaId,omitempty"`
	ResponsibleID *uint               `gorm:"column:responsible_employee_id;index" json:"responsibleEmployeeId,omitempty"`
	PurchaseDate  *time.Time          `gorm:"type:date" json:"purchaseDate,omitempty"`
	PurchaseValue decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"purchaseValue"`
	CurrentValue  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"currentValue"`
	Status        AssetStatus         `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`

	// Relations (belongs-to only; dependents are loaded by explicit queries)
	Company     *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Site        *Site     `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	Area        *Area     `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Responsible *Employee `gorm:"foreignKey:ResponsibleID" json:"responsible,omitempty"`
}

// TableName specifies the table name for Asset model
func (Asset) TableName() string {
	return "assets"
}

// AssetQR stores the current QR reference of an asset
type AssetQR struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"uniqueIndex;not null" json:"assetId"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	ImageRef  string    `gorm:"size:500;not null" json:"imageRef"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Asset *Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AssetQR model
func (AssetQR) TableName() string {
	return "asset_qrs"
}

// Warranty is a supplier warranty covering an asset
type Warranty struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AssetID   uint       `gorm:"not null;index" json:"assetId"`
	Provider  string     `gorm:"size:150" json:"provider"`
	StartDate *time.Time `gorm:"type:date" json:"startDate,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"endDate,omitempty"`
	Terms     string     `gorm:"type:text" json:"terms"`
	CreatedAt time.Time  `json:"createdAt"`

	Asset *Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Warranty model
func (Warranty) TableName() string {
	return "warranties"
}
