package repository

import (
	"context"

	"chirper/internal/cache"
	"chirper/internal/models"
	"chirper/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository keeps notifications and the recipient's unread flag consistent.
type NotificationRepository interface {
	// CreateAndFlag stores a notification and sets the recipient's has_notification flag atomically.
	CreateAndFlag(ctx context.Context, userID uint, body string) (*models.Notification, error)
	// ListAndDrain clears the flag and returns the user's notifications newest-first, atomically.
	ListAndDrain(ctx context.Context, userID uint) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateAndFlag(ctx context.Context, userID uint, body string) (*models.Notification, error) {
	defer observability.TrackQuery("insert", "notifications")()

	n := &models.Notification{UserID: userID, Body: body}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setHasNotification(tx, userID, true); err != nil {
			return err
		}
		return tx.Create(n).Error
	})
	if err != nil {
		return nil, translateError(err, "User", userID)
	}

	cache.InvalidateUser(ctx, userID)
	return n, nil
}

// ListAndDrain clears the flag before reading. A notification committed after the read
// sets the flag again, so the unread signal is never lost.
func (r *notificationRepository) ListAndDrain(ctx context.Context, userID uint) ([]models.Notification, error) {
	defer observability.TrackQuery("select", "notifications")()

	var out []models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setHasNotification(tx, userID, false); err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Find(&out).Error
	})
	if err != nil {
		return nil, translateError(err, "User", userID)
	}

	cache.InvalidateUser(ctx, userID)
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

func setHasNotification(tx *gorm.DB, userID uint, value bool) error {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Update("has_notification", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}
