package testutil

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/models"
)

// SeedCompany creates a company
func SeedCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, TaxID: fmt.Sprintf("TAX-%s", name)}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}
	return company
}

// SeedSite creates a site for a company
func SeedSite(t *testing.T, db *gorm.DB, companyID uint, name string) *models.Site {
	t.Helper()
	site := &models.Site{CompanyID: companyID, Name: name}
	if err := db.Create(site).Error; err != nil {
		t.Fatalf("Failed to seed site: %v", err)
	}
	return site
}

// SeedArea creates an area inside a site
func SeedArea(t *testing.T, db *gorm.DB, siteID uint, name string) *models.Area {
	t.Helper()
	area := &models.Area{SiteID: siteID, Name: name}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("Failed to seed area: %v", err)
	}
	return area
}

// SeedCategory creates an asset category
func SeedCategory(t *testing.T, db *gorm.DB, companyID uint, name string) *models.Category {
	t.Helper()
	category := &models.Category{CompanyID: companyID, Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return category
}

// SeedEmployee creates an employee, optionally linked to a user account
func SeedEmployee(t *testing.T, db *gorm.DB, companyID uint, name string, userID *uint) *models.Employee {
	t.Helper()
	employee := &models.Employee{CompanyID: companyID, Name: name, UserID: userID}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("Failed to seed employee: %v", err)
	}
	return employee
}

// SeedUser creates a login account
func SeedUser(t *testing.T, db *gorm.DB, companyID uint, email, role string) *models.User {
	t.Helper()
	user := &models.User{CompanyID: companyID, Email: email, Password: "x", Name: email, Role: role, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedAsset inserts an asset row directly, bypassing the registry
func SeedAsset(t *testing.T, db *gorm.DB, companyID uint, code string, opts ...func(*models.Asset)) *models.Asset {
	t.Helper()
	asset := &models.Asset{CompanyID: companyID, Code: code, Name: "Asset " + code, Status: models.AssetStatusActive}
	for _, opt := range opts {
		opt(asset)
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("Failed to seed asset: %v", err)
	}
	return asset
}

// Uint returns a pointer to v
func Uint(v uint) *uint {
	return &v
}
