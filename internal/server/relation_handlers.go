package server

import (
	"chirper/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type relationRequest struct {
	UserID uint `json:"user_id"`
	PostID uint `json:"post_id"`
}

// relationTarget reads the id named key from the JSON body, falling back to the query
// string so DELETE requests from clients that drop bodies still work.
func (s *Server) relationTarget(c *fiber.Ctx, key string) (uint, error) {
	var req relationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			_ = invalidBody(c)
			return 0, errResponseWritten
		}
	}
	id := req.UserID
	if key == "post_id" {
		id = req.PostID
	}
	if id > 0 {
		return id, nil
	}
	id, _, err := s.parseQueryID(c, key)
	return id, err
}

// Follow handles POST /api/follow and returns the updated current user.
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := s.relationTarget(c, "user_id")
	if err != nil {
		return nil
	}
	actorID := middleware.CurrentUserID(c)

	if err := s.graph.Follow(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return s.respondCurrentUser(c, actorID)
}

// Unfollow handles DELETE /api/follow and returns the updated current user.
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := s.relationTarget(c, "user_id")
	if err != nil {
		return nil
	}
	actorID := middleware.CurrentUserID(c)

	if err := s.graph.Unfollow(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return s.respondCurrentUser(c, actorID)
}

// Like handles POST /api/like and returns the updated post.
func (s *Server) Like(c *fiber.Ctx) error {
	postID, err := s.relationTarget(c, "post_id")
	if err != nil {
		return nil
	}

	if err := s.engagement.Like(c.UserContext(), middleware.CurrentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return s.respondPost(c, postID)
}

// Unlike handles DELETE /api/like and returns the updated post.
func (s *Server) Unlike(c *fiber.Ctx) error {
	postID, err := s.relationTarget(c, "post_id")
	if err != nil {
		return nil
	}

	if err := s.engagement.Unlike(c.UserContext(), middleware.CurrentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return s.respondPost(c, postID)
}

func (s *Server) respondCurrentUser(c *fiber.Ctx, userID uint) error {
	user, err := s.users.CurrentUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) respondPost(c *fiber.Ctx, postID uint) error {
	post, err := s.content.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
