// Package requests runs the approval workflow for employee requests:
// pending -> approved -> completed, or pending -> rejected.
package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/effects"
	"github.com/xelth-com/eckassets/internal/services/notify"
)

type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

type CreateInput struct {
	Kind    models.RequestKind `json:"kind"`
	AssetID *uint              `json:"assetId"`
	Reason  string             `json:"reason"`
}

type ListFilter struct {
	CompanyID *uint
	Status    models.RequestStatus
}

type Service struct {
	repos    *repository.Repositories
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repos *repository.Repositories, n Notifier, log *zap.Logger) *Service {
	return &Service{repos: repos, notifier: n, log: log.Named("requests"), now: time.Now}
}

// Create files a pending request on behalf of the caller
func (s *Service) Create(ctx context.Context, id access.Identity, in CreateInput) (*models.Request, error) {
	if err := access.Require(id, access.RequestsCreate); err != nil {
		return nil, err
	}
	if !in.Kind.Valid() {
		return nil, apperr.Validation("unknown request kind %q", in.Kind)
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, apperr.Validation("reason is required")
	}
	if id.CompanyID == 0 {
		return nil, apperr.Validation("caller has no company")
	}
	if in.AssetID != nil {
		if _, err := s.repos.Assets.FindByID(ctx, *in.AssetID); err != nil {
			return nil, notFound(err, "asset", *in.AssetID)
		}
	}

	req := &models.Request{
		CompanyID:   id.CompanyID,
		Kind:        in.Kind,
		Status:      models.RequestPending,
		AssetID:     in.AssetID,
		RequesterID: id.UserID,
		Reason:      in.Reason,
		RequestedAt: s.now().UTC(),
	}
	if err := s.repos.Requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info("Request created", zap.Uint("request_id", req.ID), zap.String("kind", string(req.Kind)))
	s.notifyRequester(ctx, req, "Request created",
		fmt.Sprintf("Your %s request #%d was created and is pending approval", req.Kind, req.ID))
	return req, nil
}

// Approve accepts a pending request
func (s *Service) Approve(ctx context.Context, id access.Identity, requestID uint, observations string) (*models.Request, error) {
	return s.decide(ctx, id, requestID, models.RequestApproved, observations)
}

// Reject declines a pending request. Observations are mandatory.
func (s *Service) Reject(ctx context.Context, id access.Identity, requestID uint, observations string) (*models.Request, error) {
	if strings.TrimSpace(observations) == "" {
		return nil, apperr.Validation("observations are required to reject a request")
	}
	return s.decide(ctx, id, requestID, models.RequestRejected, observations)
}

func (s *Service) decide(ctx context.Context, id access.Identity, requestID uint, to models.RequestStatus, observations string) (*models.Request, error) {
	if err := access.Require(id, access.RequestsDecide); err != nil {
		return nil, err
	}

	var req *models.Request
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		req, err = tx.Requests.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFound(err, "request", requestID)
		}
		if req.Status != models.RequestPending {
			return apperr.Conflict("request %d is %s, not pending", req.ID, req.Status)
		}
		now := s.now().UTC()
		approver := id.UserID
		req.Status = to
		req.ApproverID = &approver
		req.DecidedAt = &now
		req.Observations = strings.TrimSpace(observations)
		return tx.Requests.Save(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Request decided", zap.Uint("request_id", req.ID), zap.String("status", string(req.Status)))
	body := fmt.Sprintf("Your request #%d was %s", req.ID, req.Status)
	if req.Observations != "" {
		body += ": " + req.Observations
	}
	s.notifyRequester(ctx, req, "Request "+string(req.Status), body)
	return req, nil
}

// Complete closes an approved request
func (s *Service) Complete(ctx context.Context, id access.Identity, requestID uint) (*models.Request, error) {
	if err := access.Require(id, access.RequestsDecide); err != nil {
		return nil, err
	}

	var req *models.Request
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		req, err = tx.Requests.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFound(err, "request", requestID)
		}
		if req.Status != models.RequestApproved {
			return apperr.Conflict("request %d is %s, only approved requests can be completed", req.ID, req.Status)
		}
		req.Status = models.RequestCompleted
		return tx.Requests.Save(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifyRequester(ctx, req, "Request completed", fmt.Sprintf("Your request #%d has been completed", req.ID))
	return req, nil
}

// List returns requests in scope. Technicians only see their own.
func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]models.Request, error) {
	if err := access.Require(id, access.RequestsView); err != nil {
		return nil, err
	}
	var requester *uint
	if !access.Can(id, access.RequestsDecide) {
		self := id.UserID
		requester = &self
	}
	scope := access.ResolveCompanyFilter(id, f.CompanyID)
	return s.repos.Requests.List(ctx, scope, f.Status, requester)
}

func (s *Service) Get(ctx context.Context, id access.Identity, requestID uint) (*models.Request, error) {
	if err := access.Require(id, access.RequestsView); err != nil {
		return nil, err
	}
	req, err := s.repos.Requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "request", requestID)
	}
	if !access.Can(id, access.RequestsDecide) && req.RequesterID != id.UserID {
		return nil, apperr.Forbidden("request %d belongs to another user", requestID)
	}
	return req, nil
}

func (s *Service) notifyRequester(ctx context.Context, req *models.Request, title, body string) {
	ref := req.ID
	effects.Run(s.log, "notify", func() error {
		return s.notifier.Notify(ctx, notify.Message{
			UserID: req.RequesterID,
			Kind:   models.NotificationRequest,
			Title:  title,
			Body:   body,
			Link:   fmt.Sprintf("/requests/%d", req.ID),
			RefID:  &ref,
		})
	})
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return err
}
