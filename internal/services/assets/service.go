// Package assets is the asset registry: creation with code uniqueness,
// tracked-field history, status changes, QR references and label sheets.
package assets

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/effects"
	"github.com/xelth-com/eckassets/internal/services/history"
	"github.com/xelth-com/eckassets/internal/services/printer"
	"github.com/xelth-com/eckassets/internal/services/qr"
)

// HistoryWriter appends asset history entries
type HistoryWriter interface {
	Record(ctx context.Context, e history.Entry) error
}

type Service struct {
	repos    *repository.Repositories
	history  HistoryWriter
	renderer qr.Renderer
	baseURL  string
	log      *zap.Logger
}

func NewService(repos *repository.Repositories, hw HistoryWriter, renderer qr.Renderer, qrBaseURL string, log *zap.Logger) *Service {
	return &Service{
		repos:    repos,
		history:  hw,
		renderer: renderer,
		baseURL:  qrBaseURL,
		log:      log.Named("assets"),
	}
}

// Create registers a new asset. The QR image and the "asset created"
// history entry are best effort and never fail the call.
func (s *Service) Create(ctx context.Context, id access.Identity, in CreateInput) (*models.Asset, error) {
	if err := access.Require(id, access.AssetsCreate); err != nil {
		return nil, err
	}

	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, apperr.Validation("code and name are required")
	}
	if in.Status == "" {
		in.Status = models.AssetStatusActive
	}
	if !in.Status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", in.Status)
	}

	companyID := id.CompanyID
	if id.IsSystemAdmin() && in.CompanyID != nil {
		companyID = *in.CompanyID
	}
	if companyID == 0 {
		return nil, apperr.Validation("company is required")
	}

	exists, err := s.repos.Assets.CodeExists(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("asset code %q already exists", in.Code)
	}

	asset := &models.Asset{
		CompanyID:     companyID,
		Code:          in.Code,
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SiteID:        in.SiteID,
		AreaID:        in.AreaID,
		ResponsibleID: in.ResponsibleID,
		PurchaseDate:  in.PurchaseDate,
		PurchaseValue: in.PurchaseValue,
		CurrentValue:  in.CurrentValue,
		Status:        in.Status,
	}
	if err := s.repos.Assets.Create(ctx, asset); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("asset code %q already exists", in.Code)
		}
		return nil, err
	}

	s.log.Info("Asset created", zap.Uint("asset_id", asset.ID), zap.String("code", asset.Code), zap.Uint("user_id", id.UserID))

	effects.Run(s.log, "qr render", func() error {
		_, err := s.storeQR(ctx, asset.ID)
		return err
	})
	after := history.SnapshotOf(asset)
	effects.Run(s.log, "history", func() error {
		return s.history.Record(ctx, history.Entry{
			AssetID:     asset.ID,
			UserID:      id.UserID,
			Action:      history.ActionCreated,
			Description: "asset " + asset.Code + " registered",
			After:       &after,
		})
	})

	return asset, nil
}

// Get returns the asset with its whole relation graph
func (s *Service) Get(ctx context.Context, id access.Identity, assetID uint) (*repository.AssetDetail, error) {
	if err := access.Require(id, access.AssetsView); err != nil {
		return nil, err
	}
	detail, err := s.repos.Assets.FindDetail(ctx, assetID)
	if err != nil {
		return nil, assetErr(err, assetID)
	}
	if !access.Can(id, access.AssetsFinance) {
		redactFinancials(&detail.Asset)
	}
	return detail, nil
}

// List returns assets visible to the caller
func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]models.Asset, error) {
	if err := access.Require(id, access.AssetsView); err != nil {
		return nil, err
	}
	scope := access.ResolveCompanyFilter(id, f.CompanyID)
	list, err := s.repos.Assets.List(ctx, scope, repository.AssetFilter{
		SiteID:     f.SiteID,
		CategoryID: f.CategoryID,
		Status:     f.Status,
	})
	if err != nil {
		return nil, err
	}
	if !access.Can(id, access.AssetsFinance) {
		for i := range list {
			redactFinancials(&list[i])
		}
	}
	return list, nil
}

// Update applies a patch and writes one history entry per changed
// tracked field.
func (s *Service) Update(ctx context.Context, id access.Identity, assetID uint, in UpdateInput) (*models.Asset, error) {
	if err := access.Require(id, access.AssetsEdit); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", *in.Status)
	}
	if in.Code != nil {
		trimmed := strings.TrimSpace(*in.Code)
		if trimmed == "" {
			return nil, apperr.Validation("code cannot be empty")
		}
		in.Code = &trimmed
	}

	var asset *models.Asset
	var before, after history.Snapshot
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		asset, err = tx.Assets.FindByIDForUpdate(ctx, assetID)
		if err != nil {
			return assetErr(err, assetID)
		}

		if in.Code != nil && *in.Code != asset.Code {
			exists, err := tx.Assets.CodeExists(ctx, *in.Code)
			if err != nil {
				return err
			}
			if exists {
				return apperr.Conflict("asset code %q already exists", *in.Code)
			}
		}

		before = history.SnapshotOf(asset)
		in.apply(asset)
		after = history.SnapshotOf(asset)

		if err := tx.Assets.Save(ctx, asset); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("asset code %q already exists", asset.Code)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, field := range history.Changed(before, after) {
		entry := history.Entry{
			AssetID:     asset.ID,
			UserID:      id.UserID,
			Action:      history.ActionUpdated,
			Description: history.Describe(field, before, after),
			Before:      &before,
			After:       &after,
		}
		effects.Run(s.log, "history", func() error {
			return s.history.Record(ctx, entry)
		})
	}

	return asset, nil
}

// SetStatus changes only the status. Technicians use this instead of Update.
func (s *Service) SetStatus(ctx context.Context, id access.Identity, assetID uint, status models.AssetStatus) (*models.Asset, error) {
	if err := access.Require(id, access.AssetsStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", status)
	}

	var asset *models.Asset
	var before history.Snapshot
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		asset, err = tx.Assets.FindByIDForUpdate(ctx, assetID)
		if err != nil {
			return assetErr(err, assetID)
		}
		before = history.SnapshotOf(asset)
		if asset.Status == status {
			return nil
		}
		asset.Status = status
		return tx.Assets.Save(ctx, asset)
	})
	if err != nil {
		return nil, err
	}

	after := history.SnapshotOf(asset)
	if before.Status != after.Status {
		effects.Run(s.log, "history", func() error {
			return s.history.Record(ctx, history.Entry{
				AssetID:     asset.ID,
				UserID:      id.UserID,
				Action:      history.ActionStatusChanged,
				Description: history.Describe(history.FieldStatus, before, after),
				Before:      &before,
				After:       &after,
			})
		})
	}
	if !access.Can(id, access.AssetsFinance) {
		redactFinancials(asset)
	}
	return asset, nil
}

// Remove deletes the asset and every dependent row in one transaction.
// The QR image is released afterwards, best effort.
func (s *Service) Remove(ctx context.Context, id access.Identity, assetID uint) error {
	if err := access.Require(id, access.AssetsDelete); err != nil {
		return err
	}

	var imageRef string
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Assets.FindByIDForUpdate(ctx, assetID); err != nil {
			return assetErr(err, assetID)
		}
		if old, err := tx.QRs.FindByAsset(ctx, assetID); err == nil {
			imageRef = old.ImageRef
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return assetErr(tx.Assets.Delete(ctx, assetID), assetID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Asset removed", zap.Uint("asset_id", assetID), zap.Uint("user_id", id.UserID))
	if imageRef != "" {
		effects.Run(s.log, "qr release", func() error {
			return s.renderer.Release(ctx, imageRef)
		})
	}
	return nil
}

// RegenerateQR renders a fresh QR image and replaces the stored reference.
// The previous image is released by the renderer, best effort.
func (s *Service) RegenerateQR(ctx context.Context, id access.Identity, assetID uint) (*models.AssetQR, error) {
	if err := access.Require(id, access.AssetsQR); err != nil {
		return nil, err
	}
	if _, err := s.repos.Assets.FindByID(ctx, assetID); err != nil {
		return nil, assetErr(err, assetID)
	}

	var oldRef string
	if old, err := s.repos.QRs.FindByAsset(ctx, assetID); err == nil {
		oldRef = old.ImageRef
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	row, err := s.storeQR(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if oldRef != "" && oldRef != row.ImageRef {
		effects.Run(s.log, "qr release", func() error {
			return s.renderer.Release(ctx, oldRef)
		})
	}
	return row, nil
}

// History returns the audit trail of an asset, newest first
func (s *Service) History(ctx context.Context, id access.Identity, assetID uint) ([]models.AssetHistoryEntry, error) {
	if err := access.Require(id, access.AssetsView); err != nil {
		return nil, err
	}
	if _, err := s.repos.Assets.FindByID(ctx, assetID); err != nil {
		return nil, assetErr(err, assetID)
	}
	return s.repos.History.ListByAsset(ctx, assetID)
}

// LabelsPDF renders a printable QR label sheet for the given assets.
// Assets outside the caller's company are skipped.
func (s *Service) LabelsPDF(ctx context.Context, id access.Identity, assetIDs []uint) ([]byte, error) {
	if err := access.Require(id, access.AssetsQR); err != nil {
		return nil, err
	}
	if len(assetIDs) == 0 {
		return nil, apperr.Validation("no assets selected")
	}

	list, err := s.repos.Assets.FindByIDs(ctx, assetIDs)
	if err != nil {
		return nil, err
	}
	scope := access.ResolveCompanyFilter(id, nil)

	var labels []printer.Label
	for _, a := range list {
		if !scope.All && a.CompanyID != scope.CompanyID {
			continue
		}
		content := qr.Content(s.baseURL, a.ID)
		if row, err := s.repos.QRs.FindByAsset(ctx, a.ID); err == nil {
			content = row.Content
		}
		labels = append(labels, printer.Label{Code: a.Code, Name: a.Name, Content: content})
	}
	if len(labels) == 0 {
		return nil, apperr.Validation("none of the selected assets are visible")
	}
	return printer.GenerateAssetLabelsPDF(labels, printer.DefaultLabelConfig())
}

// storeQR renders a QR image and upserts the reference. A rendered image
// whose reference could not be stored is released again.
func (s *Service) storeQR(ctx context.Context, assetID uint) (*models.AssetQR, error) {
	rendered, err := s.renderer.Render(ctx, assetID)
	if err != nil {
		return nil, err
	}
	row := &models.AssetQR{
		AssetID:   assetID,
		Content:   rendered.Content,
		ImageRef:  rendered.ImageRef,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repos.QRs.Upsert(ctx, row); err != nil {
		effects.Run(s.log, "qr release", func() error {
			return s.renderer.Release(ctx, rendered.ImageRef)
		})
		return nil, err
	}
	return row, nil
}

func redactFinancials(a *models.Asset) {
	a.PurchaseValue = decimal.NullDecimal{}
	a.CurrentValue = decimal.NullDecimal{}
}

func assetErr(err error, assetID uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("asset %d not found", assetID)
	}
	return err
}
