package schedules

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
)

const dateLayout = "2006-01-02"

type CreateInput struct {
	AssetID       uint     `json:"assetId"`
	TechnicianID  *uint    `json:"technicianId"`
	ScheduledDate string   `json:"scheduledDate"`
	Description   string   `json:"description"`
	Tasks         []string `json:"tasks"`
}

// BulkInput schedules one maintenance per asset matching the filter
type BulkInput struct {
	CompanyID     *uint    `json:"companyId"`
	SiteID        *uint    `json:"siteId"`
	CategoryID    *uint    `json:"categoryId"`
	TechnicianID  *uint    `json:"technicianId"`
	ScheduledDate string   `json:"scheduledDate"`
	Description   string   `json:"description"`
	Tasks         []string `json:"tasks"`
}

type BulkResult struct {
	Created int                           `json:"created"`
	Items   []models.ScheduledMaintenance `json:"items"`
}

type UpdateInput struct {
	ScheduledDate *string   `json:"scheduledDate"`
	Description   *string   `json:"description"`
	Tasks         *[]string `json:"tasks"`
}

// CompletionInput is what the technician reports when closing a schedule
type CompletionInput struct {
	Notes           string              `json:"notes"`
	TechnicalReport string              `json:"technicalReport"`
	PartsUsed       string              `json:"partsUsed"`
	DurationMinutes *int                `json:"durationMinutes"`
	Cost            decimal.NullDecimal `json:"cost"`
	CompletedTasks  []string            `json:"completedTasks"`
}

type CompletionResult struct {
	Schedule *models.ScheduledMaintenance `json:"schedule"`
	Record   *models.MaintenanceRecord    `json:"record"`
}

type ListFilter struct {
	CompanyID    *uint
	AssetID      *uint
	TechnicianID *uint
	Status       models.ScheduleStatus
}

// parseDate accepts a plain date or an RFC 3339 timestamp and keeps the day
func parseDate(s string) (datatypes.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return datatypes.Date{}, apperr.Validation("scheduledDate is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		ts, err2 := time.Parse(time.RFC3339, s)
		if err2 != nil {
			return datatypes.Date{}, apperr.Validation("invalid scheduledDate %q", s)
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return datatypes.Date(t), nil
}

func cleanTasks(tasks []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
