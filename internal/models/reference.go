package models

import "time"

// Company is the tenant boundary
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	TaxID     string    `gorm:"size:30;uniqueIndex;not null" json:"taxId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Company model
func (Company) TableName() string {
	return "companies"
}

// Site is a physical location of a company
type Site struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;index" json:"companyId"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Address   string    `gorm:"size:255" json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Site model
func (Site) TableName() string {
	return "sites"
}

// Area is a department inside a site
type Area struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"not null;index" json:"siteId"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Area model
func (Area) TableName() string {
	return "areas"
}

// Category classifies assets
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;index" json:"companyId"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}

// Employee can hold assets. UserID links to a login account when the
// employee has one, and is the recipient of assignment notifications.
type Employee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;index" json:"companyId"`
	AreaID    *uint     `gorm:"index" json:"areaId,omitempty"`
	UserID    *uint     `gorm:"index" json:"userId,omitempty"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Email     string    `gorm:"size:150" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Employee model
func (Employee) TableName() string {
	return "employees"
}
