// Package repository implements the persistence gateway: users, posts, comments, the follow
// and like relations, and notifications.
package repository

import (
	"context"
	"errors"

	"chirper/internal/cache"
	"chirper/internal/models"
	"chirper/internal/observability"

	"gorm.io/gorm"
)

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name         string
	Username     string
	Bio          string
	ProfileImage string
	CoverImage   string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Email or username already taken")
		}
		return models.NewInternalError(err)
	}
	user.FollowingIDs = []uint{}
	return nil
}

// GetByID loads a user with its following ids. Cached entries never carry the credential hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := cache.Aside(ctx, cache.UserKey(id), cache.UserTTL, func() (models.User, error) {
		defer observability.TrackQuery("select", "users")()

		var u models.User
		if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
			return u, translateError(err, "User", id)
		}
		ids, err := followingIDs(ctx, r.db, id)
		if err != nil {
			return u, err
		}
		u.FollowingIDs = ids
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	ids, err := followingIDs(ctx, r.db, user.ID)
	if err != nil {
		return nil, err
	}
	user.FollowingIDs = ids
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// List returns every user newest-first, each with its following ids.
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(users) == 0 {
		return users, nil
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	var edges []models.Follow
	if err := r.db.WithContext(ctx).
		Select("follower_id", "following_id").
		Where("follower_id IN ?", ids).
		Order("id ASC").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	byFollower := make(map[uint][]uint, len(users))
	for _, e := range edges {
		byFollower[e.FollowerID] = append(byFollower[e.FollowerID], e.FollowingID)
	}
	for i := range users {
		users[i].FollowingIDs = nonNil(byFollower[users[i].ID])
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) (*models.User, error) {
	defer observability.TrackQuery("update", "users")()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":          update.Name,
		"username":      update.Username,
		"bio":           update.Bio,
		"profile_image": update.ProfileImage,
		"cover_image":   update.CoverImage,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, models.NewConflictError("Username already taken")
		}
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", id)
	}

	cache.InvalidateUser(ctx, id)
	return r.GetByID(ctx, id)
}

func followingIDs(ctx context.Context, db *gorm.DB, followerID uint) ([]uint, error) {
	var ids []uint
	if err := db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Order("id ASC").
		Pluck("following_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return nonNil(ids), nil
}
