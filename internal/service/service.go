// Package service holds the social graph, engagement, notification, content and user
// operations. Services validate input, call repositories and fire best-effort notifications.
package service

import (
	"context"

	"chirper/internal/models"
)

// Notifier is the best-effort notification entry point used after a primary mutation succeeds.
// Implementations log and count failures and never report them to the caller.
type Notifier interface {
	NotifyBestEffort(ctx context.Context, operation string, targetUserID uint, body string)
}

func requireActor(actorID uint) error {
	if actorID == 0 {
		return models.NewUnauthenticatedError("Not signed in")
	}
	return nil
}
