package service

import (
	"context"

	"chirper/internal/models"
	"chirper/internal/observability"
	"chirper/internal/repository"
)

// SocialGraphService manages the follow relation.
type SocialGraphService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	notifier Notifier
}

// NewSocialGraphService returns a new SocialGraphService.
func NewSocialGraphService(users repository.UserRepository, follows repository.FollowRepository, notifier Notifier) *SocialGraphService {
	return &SocialGraphService{users: users, follows: follows, notifier: notifier}
}

// Follow adds targetID to actorID's following set and notifies the target when the edge is new.
func (s *SocialGraphService) Follow(ctx context.Context, actorID, targetID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "SocialGraphService.Follow",
		observability.UserAttr("actor.id", actorID), observability.UserAttr("target.id", targetID))
	defer span.Finish(&err)

	if err := s.checkTarget(ctx, actorID, targetID); err != nil {
		return err
	}
	if actorID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}

	added, err := s.follows.Add(ctx, actorID, targetID)
	observability.RecordMutation("follow", err)
	if err != nil {
		return err
	}

	if added {
		s.notifier.NotifyBestEffort(ctx, "follow", targetID, models.NotificationFollowed)
	}
	return nil
}

// Unfollow removes targetID from actorID's following set. Removing an absent edge is a no-op.
func (s *SocialGraphService) Unfollow(ctx context.Context, actorID, targetID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "SocialGraphService.Unfollow",
		observability.UserAttr("actor.id", actorID), observability.UserAttr("target.id", targetID))
	defer span.Finish(&err)

	if err := s.checkTarget(ctx, actorID, targetID); err != nil {
		return err
	}

	_, err = s.follows.Remove(ctx, actorID, targetID)
	observability.RecordMutation("unfollow", err)
	return err
}

// IsFollowing reports whether actorID follows targetID.
func (s *SocialGraphService) IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error) {
	if actorID == 0 || targetID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, actorID, targetID)
}

// FollowerCount returns how many users follow targetID.
func (s *SocialGraphService) FollowerCount(ctx context.Context, targetID uint) (int64, error) {
	if targetID == 0 {
		return 0, models.NewValidationError("User ID is required")
	}
	return s.follows.CountFollowers(ctx, targetID)
}

func (s *SocialGraphService) checkTarget(ctx context.Context, actorID, targetID uint) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if targetID == 0 {
		return models.NewValidationError("User ID is required")
	}
	ok, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", targetID)
	}
	return nil
}
