package service

import (
	"context"
	"strings"

	"chirper/internal/models"
	"chirper/internal/repository"
	"chirper/internal/validation"
)

// UserService serves profile reads and edits.
type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

type UpdateProfileInput struct {
	UserID       uint
	Name         string
	Username     string
	Bio          string
	ProfileImage string
	CoverImage   string
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

// CurrentUser returns the signed-in user with its following ids.
func (s *UserService) CurrentUser(ctx context.Context, actorID uint) (*models.User, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actorID)
	if models.IsNotFound(err) {
		return nil, models.NewUnauthenticatedError("Not signed in")
	}
	return user, err
}

// GetUser returns a user together with the derived follower count.
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.UserProfile, error) {
	if userID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: user, FollowersCount: count}, nil
}

// ListUsers returns all users newest-first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateProfile replaces the editable profile fields. Name and username are required.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := requireActor(in.UserID); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	if in.Name == "" || in.Username == "" {
		return nil, models.NewValidationError("Name and username are required")
	}
	if len(in.Name) > validation.MaxNameLen {
		return nil, models.NewValidationError("Name too long (max 100 characters)")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Bio) > validation.MaxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}

	return s.users.UpdateProfile(ctx, in.UserID, repository.ProfileUpdate{
		Name:         in.Name,
		Username:     in.Username,
		Bio:          in.Bio,
		ProfileImage: in.ProfileImage,
		CoverImage:   in.CoverImage,
	})
}
