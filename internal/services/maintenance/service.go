// Package maintenance manages executed maintenance records. Privileged roles
// may edit any field; technicians only amend free text on their own records.
package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
)

type CreateInput struct {
	AssetID         uint                   `json:"assetId"`
	TechnicianID    *uint                  `json:"technicianId"`
	Type            models.MaintenanceType `json:"type"`
	ScheduledAt     *time.Time             `json:"scheduledAt"`
	ExecutedAt      *time.Time             `json:"executedAt"`
	Cost            decimal.NullDecimal    `json:"cost"`
	PartsUsed       string                 `json:"partsUsed"`
	DurationMinutes *int                   `json:"durationMinutes"`
	Notes           string                 `json:"notes"`
	TechnicalReport string                 `json:"technicalReport"`
	CompletedTasks  []string               `json:"completedTasks"`
}

// UpdateInput is a patch; nil fields are left alone
type UpdateInput struct {
	Type            *models.MaintenanceType `json:"type"`
	TechnicianID    *uint                   `json:"technicianId"`
	ScheduledAt     *time.Time              `json:"scheduledAt"`
	ExecutedAt      *time.Time              `json:"executedAt"`
	Cost            *decimal.NullDecimal    `json:"cost"`
	DurationMinutes *int                    `json:"durationMinutes"`
	CompletedTasks  *[]string               `json:"completedTasks"`
	PartsUsed       *string                 `json:"partsUsed"`
	Notes           *string                 `json:"notes"`
	TechnicalReport *string                 `json:"technicalReport"`
}

// restricted lists the fields a technician may not touch
func (in UpdateInput) restricted() []string {
	var fields []string
	if in.Type != nil {
		fields = append(fields, "type")
	}
	if in.TechnicianID != nil {
		fields = append(fields, "technicianId")
	}
	if in.ScheduledAt != nil {
		fields = append(fields, "scheduledAt")
	}
	if in.ExecutedAt != nil {
		fields = append(fields, "executedAt")
	}
	if in.Cost != nil {
		fields = append(fields, "cost")
	}
	if in.DurationMinutes != nil {
		fields = append(fields, "durationMinutes")
	}
	if in.CompletedTasks != nil {
		fields = append(fields, "completedTasks")
	}
	return fields
}

type ListFilter struct {
	CompanyID    *uint
	AssetID      *uint
	TechnicianID *uint
	Type         models.MaintenanceType
}

type Service struct {
	repos *repository.Repositories
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repos *repository.Repositories, log *zap.Logger) *Service {
	return &Service{repos: repos, log: log.Named("maintenance"), now: time.Now}
}

// Create records ad-hoc maintenance. Records created by a technician are
// always corrective and always attributed to that technician.
func (s *Service) Create(ctx context.Context, id access.Identity, in CreateInput) (*models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintCreate); err != nil {
		return nil, err
	}
	if id.IsTechnician() {
		self := id.UserID
		in.TechnicianID = &self
		in.Type = models.MaintenanceCorrective
	}
	if in.TechnicianID == nil {
		self := id.UserID
		in.TechnicianID = &self
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("type must be preventive or corrective")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, apperr.Validation("durationMinutes must not be negative")
	}
	if _, err := s.repos.Assets.FindByID(ctx, in.AssetID); err != nil {
		return nil, notFound(err, "asset", in.AssetID)
	}

	executedAt := s.now().UTC()
	if in.ExecutedAt != nil {
		executedAt = in.ExecutedAt.UTC()
	}
	tasks := datatypes.JSONSlice[string]{}
	if in.CompletedTasks != nil {
		tasks = in.CompletedTasks
	}

	rec := &models.MaintenanceRecord{
		AssetID:         in.AssetID,
		TechnicianID:    *in.TechnicianID,
		Type:            in.Type,
		ScheduledAt:     in.ScheduledAt,
		ExecutedAt:      executedAt,
		Cost:            in.Cost,
		PartsUsed:       in.PartsUsed,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		TechnicalReport: in.TechnicalReport,
		CompletedTasks:  tasks,
	}
	if err := s.repos.Records.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("Maintenance recorded",
		zap.Uint("record_id", rec.ID),
		zap.Uint("asset_id", rec.AssetID),
		zap.String("type", string(rec.Type)))
	return rec, nil
}

// Update edits a record. Technicians are routed to UpdateAsTechnician.
func (s *Service) Update(ctx context.Context, id access.Identity, recordID uint, in UpdateInput) (*models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintEdit); err != nil {
		return nil, err
	}
	if id.IsTechnician() {
		return s.UpdateAsTechnician(ctx, id, recordID, in)
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, apperr.Validation("type must be preventive or corrective")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, apperr.Validation("durationMinutes must not be negative")
	}

	rec, err := s.repos.Records.FindByID(ctx, recordID)
	if err != nil {
		return nil, notFound(err, "maintenance record", recordID)
	}
	if in.Type != nil {
		rec.Type = *in.Type
	}
	if in.TechnicianID != nil {
		rec.TechnicianID = *in.TechnicianID
	}
	if in.ScheduledAt != nil {
		rec.ScheduledAt = in.ScheduledAt
	}
	if in.ExecutedAt != nil {
		rec.ExecutedAt = in.ExecutedAt.UTC()
	}
	if in.Cost != nil {
		rec.Cost = *in.Cost
	}
	if in.DurationMinutes != nil {
		rec.DurationMinutes = in.DurationMinutes
	}
	if in.CompletedTasks != nil {
		rec.CompletedTasks = *in.CompletedTasks
	}
	applyText(rec, in)

	if err := s.repos.Records.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateAsTechnician lets the owning technician amend notes, parts and the
// technical report. Any other field in the patch is rejected.
func (s *Service) UpdateAsTechnician(ctx context.Context, id access.Identity, recordID uint, in UpdateInput) (*models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintEdit); err != nil {
		return nil, err
	}
	rec, err := s.repos.Records.FindByID(ctx, recordID)
	if err != nil {
		return nil, notFound(err, "maintenance record", recordID)
	}
	if rec.TechnicianID != id.UserID {
		return nil, apperr.Forbidden("maintenance record %d belongs to another technician", recordID)
	}
	if fields := in.restricted(); len(fields) > 0 {
		return nil, apperr.Forbidden("technicians cannot change %v", fields)
	}

	applyText(rec, in)
	if err := s.repos.Records.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a record. Technicians may only read their own.
func (s *Service) Get(ctx context.Context, id access.Identity, recordID uint) (*models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	rec, err := s.repos.Records.FindByID(ctx, recordID)
	if err != nil {
		return nil, notFound(err, "maintenance record", recordID)
	}
	if id.IsTechnician() && rec.TechnicianID != id.UserID {
		return nil, apperr.Forbidden("maintenance record %d belongs to another technician", recordID)
	}
	return rec, nil
}

// ForAsset returns every record of an asset, most recent first
func (s *Service) ForAsset(ctx context.Context, id access.Identity, assetID uint) ([]models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	if _, err := s.repos.Assets.FindByID(ctx, assetID); err != nil {
		return nil, notFound(err, "asset", assetID)
	}
	return s.repos.Records.ListByAsset(ctx, assetID)
}

// List returns records in scope. Technicians only see their own.
func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]models.MaintenanceRecord, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	if id.IsTechnician() {
		self := id.UserID
		f.TechnicianID = &self
	}
	scope := access.ResolveCompanyFilter(id, f.CompanyID)
	return s.repos.Records.List(ctx, scope, repository.RecordFilter{
		AssetID:      f.AssetID,
		TechnicianID: f.TechnicianID,
		Type:         f.Type,
	})
}

func (s *Service) Remove(ctx context.Context, id access.Identity, recordID uint) error {
	if err := access.Require(id, access.MaintDelete); err != nil {
		return err
	}
	return notFound(s.repos.Records.Delete(ctx, recordID), "maintenance record", recordID)
}

func applyText(rec *models.MaintenanceRecord, in UpdateInput) {
	if in.PartsUsed != nil {
		rec.PartsUsed = *in.PartsUsed
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	if in.TechnicalReport != nil {
		rec.TechnicalReport = *in.TechnicalReport
	}
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return err
}
