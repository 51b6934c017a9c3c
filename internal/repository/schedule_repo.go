package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

// ScheduleFilter narrows scheduled maintenance listings
type ScheduleFilter struct {
	AssetID      *uint
	TechnicianID *uint
	Status       models.ScheduleStatus
}

// ScheduleRepository persists scheduled maintenance
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *models.ScheduledMaintenance) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

// CreateBatch inserts rows in batches of 100
func (r *ScheduleRepository) CreateBatch(ctx context.Context, rows []models.ScheduledMaintenance) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(rows, 100).Error
}

func (r *ScheduleRepository) Save(ctx context.Context, s *models.ScheduledMaintenance) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// FindByID returns the schedule with its asset
func (r *ScheduleRepository) FindByID(ctx context.Context, id uint) (*models.ScheduledMaintenance, error) {
	var s models.ScheduledMaintenance
	err := r.db.WithContext(ctx).
		Joins("Asset").
		Where("scheduled_maintenances.id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindByIDForUpdate locks the schedule row for the rest of the transaction
func (r *ScheduleRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.ScheduledMaintenance, error) {
	var s models.ScheduledMaintenance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List returns schedules of assets visible in scope, earliest date first
func (r *ScheduleRepository) List(ctx context.Context, scope access.Scope, f ScheduleFilter) ([]models.ScheduledMaintenance, error) {
	q := r.db.WithContext(ctx).Joins("Asset")
	q = scopeByAsset(q, scope, "scheduled_maintenances.asset_id")
	if f.AssetID != nil {
		q = q.Where("scheduled_maintenances.asset_id = ?", *f.AssetID)
	}
	if f.TechnicianID != nil {
		q = q.Where("scheduled_maintenances.technician_id = ?", *f.TechnicianID)
	}
	if f.Status != "" {
		q = q.Where("scheduled_maintenances.status = ?", f.Status)
	}

	var list []models.ScheduledMaintenance
	err := q.Order("scheduled_maintenances.scheduled_date ASC").Order("scheduled_maintenances.id ASC").Find(&list).Error
	return list, err
}

// Due returns pending schedules dated on or before limit, earliest first
func (r *ScheduleRepository) Due(ctx context.Context, scope access.Scope, limit time.Time) ([]models.ScheduledMaintenance, error) {
	q := r.db.WithContext(ctx).Joins("Asset")
	q = scopeByAsset(q, scope, "scheduled_maintenances.asset_id")

	var list []models.ScheduledMaintenance
	err := q.
		Where("scheduled_maintenances.status = ?", models.ScheduleStatusPending).
		Where("scheduled_maintenances.scheduled_date <= ?", limit.Format("2006-01-02")).
		Order("scheduled_maintenances.scheduled_date ASC").Order("scheduled_maintenances.id ASC").
		Find(&list).Error
	return list, err
}

// PendingAssetIDsOn returns which of assetIDs already have a pending
// schedule on exactly the given day.
func (r *ScheduleRepository) PendingAssetIDsOn(ctx context.Context, assetIDs []uint, day string) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ScheduledMaintenance{}).
		Where("asset_id IN ?", assetIDs).
		Where("status = ?", models.ScheduleStatusPending).
		Where("scheduled_date = ?", day).
		Distinct().
		Pluck("asset_id", &ids).Error
	if err != nil {
		return nil, err
	}
	taken := make(map[uint]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	return taken, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ScheduledMaintenance{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
