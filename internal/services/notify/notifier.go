// Package notify queues notifications for users and serves the recipient
// side (listing, read flags, deletion). Delivery happens elsewhere.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
)

// Message is a notification to enqueue
type Message struct {
	UserID uint
	Kind   models.NotificationKind
	Title  string
	Body   string
	Link   string
	RefID  *uint
}

type Service struct {
	repo *repository.NotificationRepository
	now  func() time.Time
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Notify persists m for its recipient
func (s *Service) Notify(ctx context.Context, m Message) error {
	if m.UserID == 0 {
		return apperr.Validation("notification has no recipient")
	}
	if m.Kind == "" {
		m.Kind = models.NotificationSystem
	}
	n := &models.Notification{
		UserID: m.UserID,
		Kind:   m.Kind,
		Title:  m.Title,
		Body:   m.Body,
		Link:   m.Link,
		RefID:  m.RefID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("enqueue notification for user %d: %w", m.UserID, err)
	}
	return nil
}

// List returns the caller's latest notifications
func (s *Service) List(ctx context.Context, id access.Identity, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, id.UserID, unreadOnly)
}

func (s *Service) CountUnread(ctx context.Context, id access.Identity) (int64, error) {
	return s.repo.CountUnread(ctx, id.UserID)
}

// MarkRead marks one of the caller's notifications as read
func (s *Service) MarkRead(ctx context.Context, id access.Identity, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.FindForUser(ctx, notificationID, id.UserID)
	if err != nil {
		return nil, mapErr(err, notificationID)
	}
	if n.Read {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, n, s.now().UTC()); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the caller
func (s *Service) MarkAllRead(ctx context.Context, id access.Identity) (int64, error) {
	return s.repo.MarkAllRead(ctx, id.UserID, s.now().UTC())
}

// Delete removes one of the caller's notifications
func (s *Service) Delete(ctx context.Context, id access.Identity, notificationID uint) error {
	return mapErr(s.repo.DeleteForUser(ctx, notificationID, id.UserID), notificationID)
}

func mapErr(err error, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("notification %d not found", id)
	}
	return err
}
