// Package assignments is the ledger of assets handed to employees.
// An asset has at most one open assignment; the asset row lock and the
// ux_assignments_open_asset index both enforce it.
package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

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
		log:      log.Named("assignments"),
		now:      time.Now,
	}
}

type AssignInput struct {
	AssetID    uint       `json:"assetId"`
	EmployeeID uint       `json:"employeeId"`
	AssignedAt *time.Time `json:"assignedAt"`
	Notes      string     `json:"notes"`
}

type ReturnInput struct {
	ReturnedAt *time.Time `json:"returnedAt"`
	Notes      string     `json:"notes"`
}

type ListFilter struct {
	CompanyID  *uint
	AssetID    *uint
	EmployeeID *uint
	OpenOnly   bool
}

// Assign hands an asset to an employee. It fails with a conflict naming
// the current holder when the asset already has an open assignment.
func (s *Service) Assign(ctx context.Context, id access.Identity, in AssignInput) (*models.Assignment, error) {
	if err := access.Require(id, access.AssignCreate); err != nil {
		return nil, err
	}
	if in.AssetID == 0 || in.EmployeeID == 0 {
		return nil, apperr.Validation("assetId and employeeId are required")
	}

	assignedAt := s.now().UTC()
	if in.AssignedAt != nil {
		assignedAt = in.AssignedAt.UTC()
	}

	var asset *models.Asset
	var employee *models.Employee
	assignment := &models.Assignment{
		AssetID:        in.AssetID,
		EmployeeID:     in.EmployeeID,
		IssuedByUserID: id.UserID,
		AssignedAt:     assignedAt,
		Notes:          in.Notes,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		// serializes concurrent assigns of the same asset
		asset, err = tx.Assets.FindByIDForUpdate(ctx, in.AssetID)
		if err != nil {
			return notFound(err, "asset", in.AssetID)
		}
		employee, err = tx.Employees.FindByID(ctx, in.EmployeeID)
		if err != nil {
			return notFound(err, "employee", in.EmployeeID)
		}

		open, err := tx.Assignments.FindOpenByAsset(ctx, in.AssetID)
		switch {
		case err == nil:
			return apperr.Conflict("asset %s is already assigned to %s (assignment %d)", asset.Code, holderName(open), open.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := tx.Assignments.Create(ctx, assignment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("asset %s already has an open assignment", asset.Code)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Asset assigned",
		zap.Uint("assignment_id", assignment.ID),
		zap.Uint("asset_id", asset.ID),
		zap.Uint("employee_id", employee.ID),
		zap.Uint("user_id", id.UserID))

	effects.Run(s.log, "history", func() error {
		return s.history.Record(ctx, history.Entry{
			AssetID:     asset.ID,
			UserID:      id.UserID,
			Action:      history.ActionAssigned,
			Description: fmt.Sprintf("assigned to %s", employee.Name),
		})
	})
	s.notifyHolder(ctx, employee, assignment.ID, "Asset assigned",
		fmt.Sprintf("Asset %s - %s has been assigned to you", asset.Code, asset.Name), asset.ID)

	assignment.Asset = asset
	assignment.Employee = employee
	return assignment, nil
}

// Return closes an open assignment exactly once.
func (s *Service) Return(ctx context.Context, id access.Identity, assignmentID uint, in ReturnInput) (*models.Assignment, error) {
	if err := access.Require(id, access.AssignEdit); err != nil {
		return nil, err
	}

	returnedAt := s.now().UTC()
	if in.ReturnedAt != nil {
		returnedAt = in.ReturnedAt.UTC()
	}

	var assignment *models.Assignment
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		assignment, err = tx.Assignments.FindByIDForUpdate(ctx, assignmentID)
		if err != nil {
			return notFound(err, "assignment", assignmentID)
		}
		if !assignment.IsOpen() {
			return apperr.Conflict("assignment %d was already returned at %s",
				assignment.ID, assignment.ReturnedAt.Format(time.RFC3339))
		}
		if returnedAt.Before(assignment.AssignedAt) {
			return apperr.Validation("return date precedes assignment date")
		}

		receivedBy := id.UserID
		assignment.ReturnedAt = &returnedAt
		assignment.ReceivedByUserID = &receivedBy
		if in.Notes != "" {
			if assignment.Notes != "" {
				assignment.Notes += "\n"
			}
			assignment.Notes += in.Notes
		}
		return tx.Assignments.Save(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Asset returned", zap.Uint("assignment_id", assignment.ID), zap.Uint("user_id", id.UserID))

	effects.Run(s.log, "history", func() error {
		return s.history.Record(ctx, history.Entry{
			AssetID:     assignment.AssetID,
			UserID:      id.UserID,
			Action:      history.ActionReturned,
			Description: fmt.Sprintf("assignment %d closed", assignment.ID),
		})
	})
	if employee, err := s.repos.Employees.FindByID(ctx, assignment.EmployeeID); err == nil {
		s.notifyHolder(ctx, employee, assignment.ID, "Asset returned",
			fmt.Sprintf("Return of asset %d has been registered", assignment.AssetID), assignment.AssetID)
	}

	return assignment, nil
}

// ForAsset returns every assignment of an asset, newest first, open or closed
func (s *Service) ForAsset(ctx context.Context, id access.Identity, assetID uint) ([]models.Assignment, error) {
	if err := access.Require(id, access.AssignView); err != nil {
		return nil, err
	}
	if _, err := s.repos.Assets.FindByID(ctx, assetID); err != nil {
		return nil, notFound(err, "asset", assetID)
	}
	return s.repos.Assignments.ListByAsset(ctx, assetID)
}

// ForEmployee returns every assignment of an employee, newest first
func (s *Service) ForEmployee(ctx context.Context, id access.Identity, employeeID uint) ([]models.Assignment, error) {
	if err := access.Require(id, access.AssignView); err != nil {
		return nil, err
	}
	if _, err := s.repos.Employees.FindByID(ctx, employeeID); err != nil {
		return nil, notFound(err, "employee", employeeID)
	}
	return s.repos.Assignments.ListByEmployee(ctx, employeeID)
}

func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]models.Assignment, error) {
	if err := access.Require(id, access.AssignView); err != nil {
		return nil, err
	}
	scope := access.ResolveCompanyFilter(id, f.CompanyID)
	return s.repos.Assignments.List(ctx, scope, repository.AssignmentFilter{
		AssetID:    f.AssetID,
		EmployeeID: f.EmployeeID,
		OpenOnly:   f.OpenOnly,
	})
}

func (s *Service) Get(ctx context.Context, id access.Identity, assignmentID uint) (*models.Assignment, error) {
	if err := access.Require(id, access.AssignView); err != nil {
		return nil, err
	}
	a, err := s.repos.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, "assignment", assignmentID)
	}
	return a, nil
}

// Remove deletes an assignment row outright
func (s *Service) Remove(ctx context.Context, id access.Identity, assignmentID uint) error {
	if err := access.Require(id, access.AssignEdit); err != nil {
		return err
	}
	return notFound(s.repos.Assignments.Delete(ctx, assignmentID), "assignment", assignmentID)
}

func (s *Service) notifyHolder(ctx context.Context, employee *models.Employee, assignmentID uint, title, body string, assetID uint) {
	if employee.UserID == nil {
		return
	}
	ref := assignmentID
	effects.Run(s.log, "notify", func() error {
		return s.notifier.Notify(ctx, notify.Message{
			UserID: *employee.UserID,
			Kind:   models.NotificationAssignment,
			Title:  title,
			Body:   body,
			Link:   fmt.Sprintf("/assets/%d", assetID),
			RefID:  &ref,
		})
	})
}

func holderName(a *models.Assignment) string {
	if a.Employee != nil && a.Employee.Name != "" {
		return a.Employee.Name
	}
	return fmt.Sprintf("employee %d", a.EmployeeID)
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return err
}
