package access

import "gorm.io/gorm"

// Scope is the company visibility filter for a query.
// All is true when no company predicate applies.
type Scope struct {
	All       bool
	CompanyID uint
}

// AllCompanies is the unfiltered scope.
var AllCompanies = Scope{All: true}

// ForCompany pins a scope to one company.
func ForCompany(id uint) Scope {
	return Scope{CompanyID: id}
}

// ResolveCompanyFilter decides which company a caller sees.
//
// The super role gets the explicit company when given, otherwise every
// company. Any other role gets the explicit company as supplied, falling back
// to its own. Letting a non-super caller pick another company is kept as-is
// and flagged as a tenant isolation question in DESIGN.md.
func ResolveCompanyFilter(id Identity, explicit *uint) Scope {
	if id.IsSystemAdmin() {
		if explicit != nil {
			return ForCompany(*explicit)
		}
		return AllCompanies
	}
	if explicit != nil {
		return ForCompany(*explicit)
	}
	return ForCompany(id.CompanyID)
}

// Apply adds "column = company" to db unless the scope is unfiltered.
func (s Scope) Apply(db *gorm.DB, column string) *gorm.DB {
	if s.All {
		return db
	}
	return db.Where(column+" = ?", s.CompanyID)
}
