// Package history appends audit entries to the asset history log.
package history

import (
	"context"
	"fmt"

	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
)

// Actions written by the services
const (
	ActionCreated              = "asset created"
	ActionUpdated              = "asset updated"
	ActionStatusChanged        = "status changed"
	ActionAssigned             = "asset assigned"
	ActionReturned             = "asset returned"
	ActionMaintenanceCompleted = "maintenance completed"
)

// Tracked fields
const (
	FieldStatus      = "status"
	FieldResponsible = "responsibleEmployeeId"
	FieldArea        = "areaId"
)

// Snapshot is the tracked state of an asset at one point in time
type Snapshot struct {
	ResponsibleID *uint
	AreaID        *uint
	Status        models.AssetStatus
}

// SnapshotOf captures the tracked fields of a
func SnapshotOf(a *models.Asset) Snapshot {
	return Snapshot{
		ResponsibleID: copyUint(a.ResponsibleID),
		AreaID:        copyUint(a.AreaID),
		Status:        a.Status,
	}
}

// Changed lists the tracked fields that differ between before and after,
// in a fixed order.
func Changed(before, after Snapshot) []string {
	var fields []string
	if before.Status != after.Status {
		fields = append(fields, FieldStatus)
	}
	if !sameUint(before.ResponsibleID, after.ResponsibleID) {
		fields = append(fields, FieldResponsible)
	}
	if !sameUint(before.AreaID, after.AreaID) {
		fields = append(fields, FieldArea)
	}
	return fields
}

// Describe renders "field: old -> new" for one tracked field
func Describe(field string, before, after Snapshot) string {
	switch field {
	case FieldStatus:
		return fmt.Sprintf("%s: %s -> %s", field, before.Status, after.Status)
	case FieldResponsible:
		return fmt.Sprintf("%s: %s -> %s", field, fmtUint(before.ResponsibleID), fmtUint(after.ResponsibleID))
	case FieldArea:
		return fmt.Sprintf("%s: %s -> %s", field, fmtUint(before.AreaID), fmtUint(after.AreaID))
	}
	return field
}

// Entry is one history row to append
type Entry struct {
	AssetID     uint
	UserID      uint
	Action      string
	Description string
	Before      *Snapshot
	After       *Snapshot
}

// Recorder is the append-only writer
type Recorder struct {
	repo *repository.HistoryRepository
}

func NewRecorder(repo *repository.HistoryRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends e
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	row := &models.AssetHistoryEntry{
		AssetID:     e.AssetID,
		UserID:      e.UserID,
		Action:      e.Action,
		Description: e.Description,
	}
	if e.Before != nil {
		row.ResponsibleBefore = e.Before.ResponsibleID
		row.AreaBefore = e.Before.AreaID
		row.StatusBefore = string(e.Before.Status)
	}
	if e.After != nil {
		row.ResponsibleAfter = e.After.ResponsibleID
		row.AreaAfter = e.After.AreaID
		row.StatusAfter = string(e.After.Status)
	}
	if err := r.repo.Append(ctx, row); err != nil {
		return fmt.Errorf("append history for asset %d: %w", e.AssetID, err)
	}
	return nil
}

// ForAsset returns the history of an asset, newest first
func (r *Recorder) ForAsset(ctx context.Context, assetID uint) ([]models.AssetHistoryEntry, error) {
	return r.repo.ListByAsset(ctx, assetID)
}

func copyUint(v *uint) *uint {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtUint(v *uint) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
