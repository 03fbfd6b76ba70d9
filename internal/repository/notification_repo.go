package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	// CreateIfAbsent inserts the notification unless an identical unread one
	// already exists for the same recipient, group, title and message. It
	// reports whether a row was created, making review fan-out retry-safe.
	CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error)
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint) (models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Notification{}).
			Where("recipient_id = ? AND title = ? AND message = ? AND read = ?",
				notification.RecipientID, notification.Title, notification.Message, false)
		if notification.GroupID != nil {
			query = query.Where("group_id = ?", *notification.GroupID)
		} else {
			query = query.Where("group_id IS NULL")
		}

		var existing models.Notification
		if err := query.First(&existing).Error; err == nil {
			*notification = existing
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		created = true
		return nil
	})

	return created, err
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.Read {
		return notification, nil
	}

	notification.Read = true
	if err := r.db.WithContext(ctx).Save(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	return notification, nil
}
