package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

// AssetFilter narrows asset listings. Zero values mean "any".
type AssetFilter struct {
	SiteID     *uint
	CategoryID *uint
	Status     models.AssetStatus
}

// AssetDetail is an asset with every dependent collection loaded
type AssetDetail struct {
	models.Asset
	QR                   *models.AssetQR               `json:"qr,omitempty"`
	History              []models.AssetHistoryEntry    `json:"history"`
	Assignments          []models.Assignment           `json:"assignments"`
	ScheduledMaintenance []models.ScheduledMaintenance `json:"scheduledMaintenance"`
	MaintenanceRecords   []models.MaintenanceRecord    `json:"maintenanceRecords"`
	Warranties           []models.Warranty             `json:"warranties"`
}

// AssetRepository persists assets
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Create inserts an asset without touching related rows
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(asset).Error
}

// Save writes every column of asset
func (r *AssetRepository) Save(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(asset).Error
}

// FindByID returns the bare asset row
func (r *AssetRepository) FindByID(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &asset, nil
}

// FindByIDForUpdate returns the asset and holds a row lock until the transaction ends
func (r *AssetRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&asset, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &asset, nil
}

// CodeExists reports whether any asset, in any company, uses code
func (r *AssetRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Asset{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// FindByIDs returns the assets with the given ids
func (r *AssetRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Asset, error) {
	var assets []models.Asset
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("code ASC").Find(&assets).Error
	return assets, err
}

// LockIDs row-locks the given assets in id order until the transaction ends
func (r *AssetRepository) LockIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []uint
	return r.db.WithContext(ctx).Model(&models.Asset{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &locked).Error
}

// List returns assets visible in scope, newest first
func (r *AssetRepository) List(ctx context.Context, scope access.Scope, f AssetFilter) ([]models.Asset, error) {
	q := r.db.WithContext(ctx).Model(&models.Asset{})
	q = scope.Apply(q, "company_id")
	q = applyAssetFilter(q, f)

	var assets []models.Asset
	err := q.Order("created_at DESC").Order("id DESC").Find(&assets).Error
	return assets, err
}

func applyAssetFilter(q *gorm.DB, f AssetFilter) *gorm.DB {
	if f.SiteID != nil {
		q = q.Where("site_id = ?", *f.SiteID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// FindDetail loads an asset, its belongs-to relations in one joined query,
// and each dependent collection with its own query.
func (r *AssetRepository) FindDetail(ctx context.Context, id uint) (*AssetDetail, error) {
	db := r.db.WithContext(ctx)

	var asset models.Asset
	err := db.Joins("Company").Joins("Category").Joins("Site").Joins("Area").Joins("Responsible").
		Where("assets.id = ?", id).
		First(&asset).Error
	if err != nil {
		return nil, notFound(err)
	}

	detail := &AssetDetail{Asset: asset}

	var qr models.AssetQR
	switch err := db.Where("asset_id = ?", id).Take(&qr).Error; {
	case err == nil:
		detail.QR = &qr
	case notFound(err) != ErrNotFound:
		return nil, err
	}

	if err := db.Where("asset_id = ?", id).Order("created_at DESC").Order("id DESC").Find(&detail.History).Error; err != nil {
		return nil, err
	}
	if err := db.Where("asset_id = ?", id).Order("assigned_at DESC").Find(&detail.Assignments).Error; err != nil {
		return nil, err
	}
	if err := db.Where("asset_id = ?", id).Order("scheduled_date ASC").Find(&detail.ScheduledMaintenance).Error; err != nil {
		return nil, err
	}
	if err := db.Where("asset_id = ?", id).Order("executed_at DESC").Find(&detail.MaintenanceRecords).Error; err != nil {
		return nil, err
	}
	if err := db.Where("asset_id = ?", id).Order("end_date DESC").Find(&detail.Warranties).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// Delete removes an asset and every dependent row.
// Must run inside a transaction so a partial delete cannot persist.
func (r *AssetRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	dependents := []interface{}{
		&models.AssetHistoryEntry{},
		&models.Assignment{},
		&models.MaintenanceRecord{},
		&models.ScheduledMaintenance{},
		&models.Warranty{},
		&models.AssetQR{},
	}
	for _, model := range dependents {
		if err := db.Where("asset_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	res := db.Delete(&models.Asset{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QRRepository persists asset QR references
type QRRepository struct {
	db *gorm.DB
}

func NewQRRepository(db *gorm.DB) *QRRepository {
	return &QRRepository{db: db}
}

// FindByAsset returns the QR row of an asset
func (r *QRRepository) FindByAsset(ctx context.Context, assetID uint) (*models.AssetQR, error) {
	var qr models.AssetQR
	if err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).Take(&qr).Error; err != nil {
		return nil, notFound(err)
	}
	return &qr, nil
}

// Upsert replaces the QR reference of an asset
func (r *QRRepository) Upsert(ctx context.Context, qr *models.AssetQR) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "image_ref", "updated_at"}),
		}).
		Omit(clause.Associations).
		Create(qr).Error
}
