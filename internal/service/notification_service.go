package service

import (
	"context"

	"chirper/internal/featureflags"
	"chirper/internal/middleware"
	"chirper/internal/models"
	"chirper/internal/observability"
	"chirper/internal/repository"
)

// Publisher pushes a stored notification to the recipient's live connections.
type Publisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// FlagEvaluator reports whether a feature flag is on for a user.
type FlagEvaluator interface {
	Enabled(name string, userID uint) bool
}

// NotificationService appends notifications, maintains the unread flag and drains it on read.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	flags     FlagEvaluator
}

// NewNotificationService returns a NotificationService. publisher and flags may be nil,
// which disables realtime delivery.
func NewNotificationService(repo repository.NotificationRepository, publisher Publisher, flags FlagEvaluator) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, flags: flags}
}

// Notify stores a notification for targetUserID and raises its unread flag.
func (s *NotificationService) Notify(ctx context.Context, targetUserID uint, body string) (n *models.Notification, err error) {
	ctx, span := observability.StartSpan(ctx, "NotificationService.Notify", observability.UserAttr("target.id", targetUserID))
	defer span.Finish(&err)

	if targetUserID == 0 {
		return nil, models.NewValidationError("Target user is required")
	}
	if body == "" {
		return nil, models.NewValidationError("Notification body is required")
	}

	n, err = s.repo.CreateAndFlag(ctx, targetUserID, body)
	if err != nil {
		return nil, err
	}
	observability.NotificationsCreated.Inc()

	s.publish(ctx, n)
	return n, nil
}

// NotifyBestEffort calls Notify and swallows its error after logging it.
func (s *NotificationService) NotifyBestEffort(ctx context.Context, operation string, targetUserID uint, body string) {
	if _, err := s.Notify(ctx, targetUserID, body); err != nil {
		observability.NotificationSideEffectFailures.WithLabelValues(operation).Inc()
		middleware.Logger.WarnContext(ctx, "notification side effect failed",
			"operation", operation,
			"target_user_id", targetUserID,
			"error", err,
		)
	}
}

// ListAndDrain returns userID's notifications newest-first and clears the unread flag,
// even when the list is empty.
func (s *NotificationService) ListAndDrain(ctx context.Context, userID uint) (out []models.Notification, err error) {
	ctx, span := observability.StartSpan(ctx, "NotificationService.ListAndDrain", observability.UserAttr("user.id", userID))
	defer span.Finish(&err)

	if userID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}

	out, err = s.repo.ListAndDrain(ctx, userID)
	if err != nil {
		return nil, err
	}
	observability.NotificationDrains.Inc()
	return out, nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if s.publisher == nil || s.flags == nil || !s.flags.Enabled(featureflags.RealtimeNotifications, n.UserID) {
		return
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "realtime notification publish failed",
			"target_user_id", n.UserID,
			"notification_id", n.ID,
			"error", err,
		)
	}
}
