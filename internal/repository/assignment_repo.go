package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

// AssignmentFilter narrows assignment listings
type AssignmentFilter struct {
	AssetID    *uint
	EmployeeID *uint
	OpenOnly   bool
}

// AssignmentRepository persists assignments
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment. A second open row for the same asset is
// rejected by ux_assignments_open_asset with gorm.ErrDuplicatedKey.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *AssignmentRepository) Save(ctx context.Context, a *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

// FindByID returns an assignment with its asset and employee
func (r *AssignmentRepository) FindByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	err := r.db.WithContext(ctx).
		Joins("Asset").Joins("Employee").
		Where("assignments.id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindByIDForUpdate locks the assignment row for the rest of the transaction
func (r *AssignmentRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindOpenByAsset returns the open assignment of an asset, with its holder
func (r *AssignmentRepository) FindOpenByAsset(ctx context.Context, assetID uint) (*models.Assignment, error) {
	var a models.Assignment
	err := r.db.WithContext(ctx).
		Joins("Employee").
		Where("assignments.asset_id = ? AND assignments.returned_at IS NULL", assetID).
		Take(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CountOpen returns how many open assignments the asset has
func (r *AssignmentRepository) CountOpen(ctx context.Context, assetID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("asset_id = ? AND returned_at IS NULL", assetID).
		Count(&count).Error
	return count, err
}

// ListByAsset returns every assignment of an asset, newest first
func (r *AssignmentRepository) ListByAsset(ctx context.Context, assetID uint) ([]models.Assignment, error) {
	var list []models.Assignment
	err := r.db.WithContext(ctx).
		Joins("Employee").
		Where("assignments.asset_id = ?", assetID).
		Order("assignments.assigned_at DESC").Order("assignments.id DESC").
		Find(&list).Error
	return list, err
}

// ListByEmployee returns every assignment held by an employee, newest first
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID uint) ([]models.Assignment, error) {
	var list []models.Assignment
	err := r.db.WithContext(ctx).
		Joins("Asset").
		Where("assignments.employee_id = ?", employeeID).
		Order("assignments.assigned_at DESC").Order("assignments.id DESC").
		Find(&list).Error
	return list, err
}

// List returns assignments of assets visible in scope
func (r *AssignmentRepository) List(ctx context.Context, scope access.Scope, f AssignmentFilter) ([]models.Assignment, error) {
	q := r.db.WithContext(ctx).Joins("Asset").Joins("Employee")
	q = scopeByAsset(q, scope, "assignments.asset_id")
	if f.AssetID != nil {
		q = q.Where("assignments.asset_id = ?", *f.AssetID)
	}
	if f.EmployeeID != nil {
		q = q.Where("assignments.employee_id = ?", *f.EmployeeID)
	}
	if f.OpenOnly {
		q = q.Where("assignments.returned_at IS NULL")
	}

	var list []models.Assignment
	err := q.Order("assignments.assigned_at DESC").Order("assignments.id DESC").Find(&list).Error
	return list, err
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
