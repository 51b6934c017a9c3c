package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/models"
)

// HistoryRepository appends and reads asset history. It has no update or
// delete methods; rows go away only with their asset.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *models.AssetHistoryEntry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

// ListByAsset returns entries newest first
func (r *HistoryRepository) ListByAsset(ctx context.Context, assetID uint) ([]models.AssetHistoryEntry, error) {
	var list []models.AssetHistoryEntry
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// CountByAction counts entries of one action for an asset
func (r *HistoryRepository) CountByAction(ctx context.Context, assetID uint, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AssetHistoryEntry{}).
		Where("asset_id = ? AND action = ?", assetID, action).
		Count(&count).Error
	return count, err
}
