package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/models"
)

// NotificationListLimit caps how many notifications a recipient lists
const NotificationListLimit = 50

// NotificationRepository persists queued notifications
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListForUser returns the latest notifications of a recipient
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Order("id DESC").Limit(NotificationListLimit).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// FindForUser returns a notification only if it belongs to userID
func (r *NotificationRepository) FindForUser(ctx context.Context, id, userID uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&n).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, n *models.Notification, at time.Time) error {
	n.Read = true
	n.ReadAt = &at
	return r.db.WithContext(ctx).Model(n).Updates(map[string]interface{}{"read": true, "read_at": at}).Error
}

// MarkAllRead marks every unread notification of userID and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// DeleteForUser deletes a notification owned by userID
func (r *NotificationRepository) DeleteForUser(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
