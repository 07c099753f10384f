package server

import (
	"chirper/internal/middleware"
	"chirper/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts?user_id=
func (s *Server) ListPosts(c *fiber.Ctx) error {
	authorID, present, err := s.parseQueryID(c, "user_id")
	if err != nil {
		return nil
	}
	var filter *uint
	if present {
		filter = &authorID
	}

	posts, err := s.content.ListPosts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.content.CreatePost(c.UserContext(), middleware.CurrentUserID(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:postId
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.content.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// HasLiked handles GET /api/posts/:postId/liked
func (s *Server) HasLiked(c *fiber.Ctx) error {
	id, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	liked, err := s.engagement.HasLiked(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// CreateComment handles POST /api/comments?post_id=
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, _, err := s.parseQueryID(c, "post_id")
	if err != nil {
		return nil
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.content.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: middleware.CurrentUserID(c),
		PostID:   postID,
		Body:     req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
