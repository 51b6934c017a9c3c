package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

// RecordFilter narrows maintenance record listings
type RecordFilter struct {
	AssetID      *uint
	TechnicianID *uint
	Type         models.MaintenanceType
}

// RecordRepository persists executed maintenance
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, rec *models.MaintenanceRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
}

func (r *RecordRepository) Save(ctx context.Context, rec *models.MaintenanceRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error
}

func (r *RecordRepository) FindByID(ctx context.Context, id uint) (*models.MaintenanceRecord, error) {
	var rec models.MaintenanceRecord
	err := r.db.WithContext(ctx).
		Joins("Asset").
		Where("maintenance_records.id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// ListByAsset returns the records of an asset, most recent first
func (r *RecordRepository) ListByAsset(ctx context.Context, assetID uint) ([]models.MaintenanceRecord, error) {
	var list []models.MaintenanceRecord
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("executed_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// CountBySchedule returns how many records a schedule produced
func (r *RecordRepository) CountBySchedule(ctx context.Context, scheduleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MaintenanceRecord{}).
		Where("scheduled_maintenance_id = ?", scheduleID).
		Count(&count).Error
	return count, err
}

func (r *RecordRepository) List(ctx context.Context, scope access.Scope, f RecordFilter) ([]models.MaintenanceRecord, error) {
	q := r.db.WithContext(ctx).Joins("Asset")
	q = scopeByAsset(q, scope, "maintenance_records.asset_id")
	if f.AssetID != nil {
		q = q.Where("maintenance_records.asset_id = ?", *f.AssetID)
	}
	if f.TechnicianID != nil {
		q = q.Where("maintenance_records.technician_id = ?", *f.TechnicianID)
	}
	if f.Type != "" {
		q = q.Where("maintenance_records.type = ?", f.Type)
	}

	var list []models.MaintenanceRecord
	err := q.Order("maintenance_records.executed_at DESC").Order("maintenance_records.id DESC").Find(&list).Error
	return list, err
}

func (r *RecordRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.MaintenanceRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
