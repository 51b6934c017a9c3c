// Package schedules plans maintenance: single and bulk scheduling, due
// queries, technician reassignment and the completion transition that turns
// a plan into a maintenance record.
package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/effects"
	"github.com/xelth-com/eckassets/internal/services/history"
	"github.com/xelth-com/eckassets/internal/services/notify"
)

type HistoryWriter interface {
	Record(ctx context.Context, e history.Entry) error
}

type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

type Service struct {
	repos    *repository.Repositories
	history  HistoryWriter
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repos *repository.Repositories, hw HistoryWriter, n Notifier, log *zap.Logger) *Service {
	return &Service{
		repos:    repos,
		history:  hw,
		notifier: n,
		log:      log.Named("schedules"),
		now:      time.Now,
	}
}

// Create plans one maintenance for an asset
func (s *Service) Create(ctx context.Context, id access.Identity, in CreateInput) (*models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintAssign); err != nil {
		return nil, err
	}
	date, err := parseDate(in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	asset, err := s.repos.Assets.FindByID(ctx, in.AssetID)
	if err != nil {
		return nil, notFound(err, "asset", in.AssetID)
	}

	sched := &models.ScheduledMaintenance{
		AssetID:       asset.ID,
		TechnicianID:  in.TechnicianID,
		ScheduledDate: date,
		Status:        models.ScheduleStatusPending,
		Description:   in.Description,
		Tasks:         cleanTasks(in.Tasks),
	}
	if err := s.repos.Schedules.Create(ctx, sched); err != nil {
		return nil, err
	}

	s.log.Info("Maintenance scheduled",
		zap.Uint("schedule_id", sched.ID),
		zap.Uint("asset_id", asset.ID),
		zap.String("date", repository.DateKey(date)))

	if sched.TechnicianID != nil {
		s.notifyTechnician(ctx, *sched.TechnicianID, sched.ID,
			"Maintenance assigned",
			fmt.Sprintf("Maintenance for %s scheduled on %s has been assigned to you", asset.Name, repository.DateKey(date)))
	}
	sched.Asset = asset
	return sched, nil
}

// CreateBulk schedules one maintenance per asset matching the filter,
// skipping assets that already have a pending maintenance on exactly that
// date. The candidate assets are row-locked so overlapping bulk calls
// cannot double-schedule.
func (s *Service) CreateBulk(ctx context.Context, id access.Identity, in BulkInput) (*BulkResult, error) {
	if err := access.Require(id, access.MaintAssign); err != nil {
		return nil, err
	}
	date, err := parseDate(in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	day := repository.DateKey(date)
	scope := access.ResolveCompanyFilter(id, in.CompanyID)
	tasks := cleanTasks(in.Tasks)

	var rows []models.ScheduledMaintenance
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		candidates, err := tx.Assets.List(ctx, scope, repository.AssetFilter{
			SiteID:     in.SiteID,
			CategoryID: in.CategoryID,
		})
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return apperr.Validation("no assets match the filter")
		}

		ids := make([]uint, len(candidates))
		for i, a := range candidates {
			ids[i] = a.ID
		}
		if err := tx.Assets.LockIDs(ctx, ids); err != nil {
			return err
		}

		taken, err := tx.Schedules.PendingAssetIDsOn(ctx, ids, day)
		if err != nil {
			return err
		}
		for _, a := range candidates {
			if taken[a.ID] {
				continue
			}
			rows = append(rows, models.ScheduledMaintenance{
				AssetID:       a.ID,
				TechnicianID:  in.TechnicianID,
				ScheduledDate: date,
				Status:        models.ScheduleStatusPending,
				Description:   in.Description,
				Tasks:         tasks,
			})
		}
		if len(rows) == 0 {
			return apperr.Validation("all %d matching assets already have maintenance pending on %s", len(candidates), day)
		}
		return tx.Schedules.CreateBatch(ctx, rows)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Bulk maintenance scheduled", zap.Int("created", len(rows)), zap.String("date", day))

	if in.TechnicianID != nil {
		s.notifyTechnician(ctx, *in.TechnicianID, 0,
			"Maintenance assigned",
			fmt.Sprintf("%d maintenances scheduled on %s have been assigned to you", len(rows), day))
	}
	return &BulkResult{Created: len(rows), Items: rows}, nil
}

// Due returns pending maintenance dated within the next withinDays days,
// overdue items included, earliest first.
func (s *Service) Due(ctx context.Context, id access.Identity, withinDays int, companyID *uint) ([]models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	if withinDays < 0 {
		return nil, apperr.Validation("withinDays must not be negative")
	}
	scope := access.ResolveCompanyFilter(id, companyID)
	return s.repos.Schedules.Due(ctx, scope, dueLimit(s.now(), withinDays))
}

// ReassignTechnician changes the technician. The new technician is
// notified only when the value actually changes.
func (s *Service) ReassignTechnician(ctx context.Context, id access.Identity, scheduleID uint, technicianID *uint) (*models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintAssign); err != nil {
		return nil, err
	}

	var sched *models.ScheduledMaintenance
	changed := false
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		sched, err = tx.Schedules.FindByIDForUpdate(ctx, scheduleID)
		if err != nil {
			return notFound(err, "scheduled maintenance", scheduleID)
		}
		if sameUint(sched.TechnicianID, technicianID) {
			return nil
		}
		changed = true
		sched.TechnicianID = technicianID
		return tx.Schedules.Save(ctx, sched)
	})
	if err != nil {
		return nil, err
	}

	if changed && technicianID != nil {
		assetName := fmt.Sprintf("asset %d", sched.AssetID)
		if asset, err := s.repos.Assets.FindByID(ctx, sched.AssetID); err == nil {
			assetName = asset.Name
		}
		s.notifyTechnician(ctx, *technicianID, sched.ID,
			"Maintenance assigned",
			fmt.Sprintf("Maintenance for %s scheduled on %s has been assigned to you", assetName, repository.DateKey(sched.ScheduledDate)))
	}
	return sched, nil
}

// Complete marks a pending maintenance done and creates its preventive
// maintenance record in the same transaction.
func (s *Service) Complete(ctx context.Context, id access.Identity, scheduleID uint, in CompletionInput) (*CompletionResult, error) {
	if err := access.Require(id, access.MaintExecute); err != nil {
		return nil, err
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, apperr.Validation("durationMinutes must not be negative")
	}

	now := s.now().UTC()
	var sched *models.ScheduledMaintenance
	var record *models.MaintenanceRecord

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		sched, err = tx.Schedules.FindByIDForUpdate(ctx, scheduleID)
		if err != nil {
			return notFound(err, "scheduled maintenance", scheduleID)
		}
		if sched.Status != models.ScheduleStatusPending {
			return apperr.Conflict("scheduled maintenance %d is %s, not pending", sched.ID, sched.Status)
		}
		if sched.TechnicianID != nil && *sched.TechnicianID != id.UserID {
			return apperr.Forbidden("scheduled maintenance %d is assigned to another technician", sched.ID)
		}

		sched.Status = models.ScheduleStatusDone
		sched.CompletedAt = &now
		if err := tx.Schedules.Save(ctx, sched); err != nil {
			return err
		}

		notes := in.Notes
		if notes == "" {
			notes = sched.Description
		}
		completed := sched.Tasks
		if in.CompletedTasks != nil {
			completed = cleanTasks(in.CompletedTasks)
		}
		scheduledAt := time.Time(sched.ScheduledDate)
		schedID := sched.ID

		record = &models.MaintenanceRecord{
			AssetID:                sched.AssetID,
			TechnicianID:           id.UserID,
			ScheduledMaintenanceID: &schedID,
			Type:                   models.MaintenancePreventive,
			ScheduledAt:            &scheduledAt,
			ExecutedAt:             now,
			Cost:                   in.Cost,
			PartsUsed:              in.PartsUsed,
			DurationMinutes:        in.DurationMinutes,
			Notes:                  notes,
			TechnicalReport:        in.TechnicalReport,
			CompletedTasks:         completed,
		}
		return tx.Records.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Maintenance completed",
		zap.Uint("schedule_id", sched.ID),
		zap.Uint("record_id", record.ID),
		zap.Uint("technician_id", id.UserID))

	effects.Run(s.log, "history", func() error {
		return s.history.Record(ctx, history.Entry{
			AssetID:     sched.AssetID,
			UserID:      id.UserID,
			Action:      history.ActionMaintenanceCompleted,
			Description: fmt.Sprintf("scheduled maintenance %d completed, record %d", sched.ID, record.ID),
		})
	})

	return &CompletionResult{Schedule: sched, Record: record}, nil
}

// List returns schedules in scope. Technicians only see their own.
func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	if id.IsTechnician() {
		self := id.UserID
		f.TechnicianID = &self
	}
	scope := access.ResolveCompanyFilter(id, f.CompanyID)
	return s.repos.Schedules.List(ctx, scope, repository.ScheduleFilter{
		AssetID:      f.AssetID,
		TechnicianID: f.TechnicianID,
		Status:       f.Status,
	})
}

func (s *Service) Get(ctx context.Context, id access.Identity, scheduleID uint) (*models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintView); err != nil {
		return nil, err
	}
	sched, err := s.repos.Schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, notFound(err, "scheduled maintenance", scheduleID)
	}
	return sched, nil
}

// Update edits date, description or tasks of a pending maintenance
func (s *Service) Update(ctx context.Context, id access.Identity, scheduleID uint, in UpdateInput) (*models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintAssign); err != nil {
		return nil, err
	}

	var sched *models.ScheduledMaintenance
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		sched, err = tx.Schedules.FindByIDForUpdate(ctx, scheduleID)
		if err != nil {
			return notFound(err, "scheduled maintenance", scheduleID)
		}
		if sched.Status != models.ScheduleStatusPending {
			return apperr.Conflict("scheduled maintenance %d is %s and can no longer be edited", sched.ID, sched.Status)
		}
		if in.ScheduledDate != nil {
			date, err := parseDate(*in.ScheduledDate)
			if err != nil {
				return err
			}
			sched.ScheduledDate = date
		}
		if in.Description != nil {
			sched.Description = *in.Description
		}
		if in.Tasks != nil {
			sched.Tasks = cleanTasks(*in.Tasks)
		}
		return tx.Schedules.Save(ctx, sched)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// Cancel moves a pending maintenance to cancelled
func (s *Service) Cancel(ctx context.Context, id access.Identity, scheduleID uint) (*models.ScheduledMaintenance, error) {
	if err := access.Require(id, access.MaintAssign); err != nil {
		return nil, err
	}

	var sched *models.ScheduledMaintenance
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		sched, err = tx.Schedules.FindByIDForUpdate(ctx, scheduleID)
		if err != nil {
			return notFound(err, "scheduled maintenance", scheduleID)
		}
		if sched.Status != models.ScheduleStatusPending {
			return apperr.Conflict("scheduled maintenance %d is %s, not pending", sched.ID, sched.Status)
		}
		sched.Status = models.ScheduleStatusCancelled
		return tx.Schedules.Save(ctx, sched)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) Remove(ctx context.Context, id access.Identity, scheduleID uint) error {
	if err := access.Require(id, access.MaintDelete); err != nil {
		return err
	}
	return notFound(s.repos.Schedules.Delete(ctx, scheduleID), "scheduled maintenance", scheduleID)
}

func (s *Service) notifyTechnician(ctx context.Context, technicianID, scheduleID uint, title, body string) {
	msg := notify.Message{
		UserID: technicianID,
		Kind:   models.NotificationMaintenance,
		Title:  title,
		Body:   body,
		Link:   "/maintenance/scheduled",
	}
	if scheduleID != 0 {
		msg.RefID = &scheduleID
		msg.Link = fmt.Sprintf("/maintenance/scheduled/%d", scheduleID)
	}
	effects.Run(s.log, "notify", func() error {
		return s.notifier.Notify(ctx, msg)
	})
}

// dueLimit is the last calendar day (UTC) covered by a due query
func dueLimit(now time.Time, withinDays int) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, withinDays)
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return err
}
