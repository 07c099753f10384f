package server

import (
	"chirper/internal/middleware"
	"chirper/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications/:userId. Users may only drain their own inbox.
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if userID != middleware.CurrentUserID(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only read your own notifications"))
	}

	list, err := s.notifications.ListAndDrain(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetFeatureFlags handles GET /api/flags with the flag values evaluated for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	return c.JSON(fiber.Map{
		"names":     s.featureFlags.Names(),
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
