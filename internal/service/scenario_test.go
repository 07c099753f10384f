package service_test

import (
	"context"
	"testing"

	"chirper/internal/config"
	"chirper/internal/database"
	"chirper/internal/models"
	"chirper/internal/repository"
	"chirper/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stack struct {
	db            *gorm.DB
	users         repository.UserRepository
	notifications *service.NotificationService
	graph         *service.SocialGraphService
	engagement    *service.EngagementService
	content       *service.ContentService
	profiles      *service.UserService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := database.Open(&config.Config{DBDriver: database.DriverSQLite, DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	posts := repository.NewPostRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil)

	return &stack{
		db:            db,
		users:         users,
		notifications: notifications,
		graph:         service.NewSocialGraphService(users, follows, notifications),
		engagement:    service.NewEngagementService(users, posts, notifications),
		content:       service.NewContentService(posts, repository.NewCommentRepository(db), notifications),
		profiles:      service.NewUserService(users, follows),
	}
}

func (s *stack) register(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Name: username, Username: username, Email: username + "@example.com"}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func TestScenario_PostLikeCommentDrain(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	a := s.register(t, "alice")
	b := s.register(t, "bob")

	post, err := s.content.CreatePost(ctx, a.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, s.engagement.Like(ctx, b.ID, post.ID))
	_, err = s.content.CreateComment(ctx, service.CreateCommentInput{AuthorID: b.ID, PostID: post.ID, Body: "hi"})
	require.NoError(t, err)

	detail, err := s.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, detail.LikedIDs)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "hi", detail.Comments[0].Body)
	require.NotNil(t, detail.Comments[0].User)
	assert.Equal(t, "bob", detail.Comments[0].User.Username)

	flagged, err := s.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, flagged.HasNotification)

	list, err := s.notifications.ListAndDrain(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationReplied, list[0].Body)
	assert.Equal(t, models.NotificationLiked, list[1].Body)

	drained, err := s.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, drained.HasNotification)

	// Draining keeps the history; a user with none gets an empty list.
	list, err = s.notifications.ListAndDrain(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	list, err = s.notifications.ListAndDrain(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScenario_LikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	a := s.register(t, "alice")
	b := s.register(t, "bob")

	post, err := s.content.CreatePost(ctx, a.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, s.engagement.Like(ctx, b.ID, post.ID))
	require.NoError(t, s.engagement.Like(ctx, b.ID, post.ID))

	detail, err := s.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, detail.LikedIDs)

	list, err := s.notifications.ListAndDrain(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.engagement.Unlike(ctx, b.ID, post.ID))
	require.NoError(t, s.engagement.Unlike(ctx, b.ID, post.ID))
	liked, err := s.engagement.HasLiked(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestScenario_FollowGraph(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	a := s.register(t, "alice")
	b := s.register(t, "bob")

	require.NoError(t, s.graph.Follow(ctx, a.ID, b.ID))
	require.NoError(t, s.graph.Follow(ctx, a.ID, b.ID))

	ok, err := s.graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := s.graph.FollowerCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	user, err := s.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, user.FollowingIDs)

	err = s.graph.Follow(ctx, a.ID, a.ID)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	err = s.graph.Follow(ctx, a.ID, 999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	require.NoError(t, s.graph.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, s.graph.Unfollow(ctx, a.ID, b.ID))
	count, err = s.graph.FollowerCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	list, err := s.notifications.ListAndDrain(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationFollowed, list[0].Body)
}

func TestScenario_CommentOnUnknownPostLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	b := s.register(t, "bob")

	_, err := s.content.CreateComment(ctx, service.CreateCommentInput{AuthorID: b.ID, PostID: 42, Body: "hi"})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	var comments int64
	require.NoError(t, s.db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	var notifications int64
	require.NoError(t, s.db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Zero(t, notifications)
}
