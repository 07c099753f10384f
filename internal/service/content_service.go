package service

import (
	"context"

	"chirper/internal/models"
	"chirper/internal/observability"
	"chirper/internal/repository"
	"chirper/internal/validation"
)

// ContentService creates and reads posts and comments.
type ContentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	notifier Notifier
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Body     string
}

// NewContentService returns a new ContentService.
func NewContentService(posts repository.PostRepository, comments repository.CommentRepository, notifier Notifier) *ContentService {
	return &ContentService{posts: posts, comments: comments, notifier: notifier}
}

// CreatePost persists a post with an empty liked set.
func (s *ContentService) CreatePost(ctx context.Context, authorID uint, body string) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "ContentService.CreatePost", observability.UserAttr("actor.id", authorID))
	defer span.Finish(&err)

	if err := requireActor(authorID); err != nil {
		return nil, err
	}
	if err := validation.ValidateText("body", body, validation.MaxPostBodyLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post = &models.Post{UserID: authorID, Body: body}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	return post, nil
}

// CreateComment replies to an existing post and notifies its author.
// An unknown post fails before anything is written.
func (s *ContentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "ContentService.CreateComment",
		observability.UserAttr("actor.id", in.AuthorID), observability.UserAttr("post.id", in.PostID))
	defer span.Finish(&err)

	if err := requireActor(in.AuthorID); err != nil {
		return nil, err
	}
	if in.PostID == 0 {
		return nil, models.NewValidationError("Post ID is required")
	}
	if err := validation.ValidateText("body", in.Body, validation.MaxCommentBodyLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{UserID: in.AuthorID, PostID: post.ID, Body: in.Body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()

	s.notifier.NotifyBestEffort(ctx, "comment", post.UserID, models.NotificationReplied)
	return comment, nil
}

// GetPost returns the post with its author, liked ids and comments (each with author) newest-first.
func (s *ContentService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	if postID == 0 {
		return nil, models.NewValidationError("Post ID is required")
	}
	return s.posts.GetDetail(ctx, postID)
}

// ListPosts returns posts newest-first, restricted to authorID when it is non-nil.
func (s *ContentService) ListPosts(ctx context.Context, authorID *uint) ([]*models.Post, error) {
	return s.posts.List(ctx, authorID)
}
