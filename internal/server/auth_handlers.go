package server

import (
	"chirper/internal/middleware"
	"chirper/internal/service"
	"chirper/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sess, err := s.auth.Register(c.UserContext(), session.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// Login handles POST /api/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sess, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

// Logout handles POST /api/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalToken).(string)
	if err := s.auth.Logout(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Current handles GET /api/current
func (s *Server) Current(c *fiber.Ctx) error {
	user, err := s.users.CurrentUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// EditProfile handles PATCH /api/edit
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var req struct {
		Name         string `json:"name"`
		Username     string `json:"username"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profile_image"`
		CoverImage   string `json:"cover_image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:       middleware.CurrentUserID(c),
		Name:         req.Name,
		Username:     req.Username,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
		CoverImage:   req.CoverImage,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
