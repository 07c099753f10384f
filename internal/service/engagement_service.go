package service

import (
	"context"

	"chirper/internal/middleware"
	"chirper/internal/models"
	"chirper/internal/observability"
	"chirper/internal/repository"
)

// EngagementService manages likes on posts.
type EngagementService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	notifier Notifier
}

// NewEngagementService returns a new EngagementService.
func NewEngagementService(users repository.UserRepository, posts repository.PostRepository, notifier Notifier) *EngagementService {
	return &EngagementService{users: users, posts: posts, notifier: notifier}
}

// Like adds actorID to the post's liked set. When the like is new and the author
// still exists, the author is notified.
func (s *EngagementService) Like(ctx context.Context, actorID, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.Like",
		observability.UserAttr("actor.id", actorID), observability.UserAttr("post.id", postID))
	defer span.Finish(&err)

	post, err := s.loadPost(ctx, actorID, postID)
	if err != nil {
		return err
	}

	added, err := s.posts.Like(ctx, actorID, postID)
	observability.RecordMutation("like", err)
	if err != nil {
		return err
	}

	if added {
		s.notifyAuthor(ctx, post.UserID)
	}
	return nil
}

// Unlike removes actorID from the post's liked set. Removing an absent like is a no-op.
func (s *EngagementService) Unlike(ctx context.Context, actorID, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.Unlike",
		observability.UserAttr("actor.id", actorID), observability.UserAttr("post.id", postID))
	defer span.Finish(&err)

	if _, err := s.loadPost(ctx, actorID, postID); err != nil {
		return err
	}

	_, err = s.posts.Unlike(ctx, actorID, postID)
	observability.RecordMutation("unlike", err)
	return err
}

// HasLiked reports whether actorID currently likes postID.
func (s *EngagementService) HasLiked(ctx context.Context, actorID, postID uint) (bool, error) {
	if actorID == 0 || postID == 0 {
		return false, nil
	}
	return s.posts.IsLiked(ctx, actorID, postID)
}

func (s *EngagementService) loadPost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if postID == 0 {
		return nil, models.NewValidationError("Post ID is required")
	}
	return s.posts.GetByID(ctx, postID)
}

// notifyAuthor skips authors that can no longer be found.
func (s *EngagementService) notifyAuthor(ctx context.Context, authorID uint) {
	ok, err := s.users.Exists(ctx, authorID)
	if err != nil {
		observability.NotificationSideEffectFailures.WithLabelValues("like").Inc()
		middleware.Logger.WarnContext(ctx, "post author lookup failed", "author_id", authorID, "error", err)
		return
	}
	if !ok {
		return
	}
	s.notifier.NotifyBestEffort(ctx, "like", authorID, models.NotificationLiked)
}
