package seed

import (
	"context"
	"fmt"

	"chirper/internal/middleware"
	"chirper/internal/models"
	"chirper/internal/repository"
	"chirper/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Chirper-Seed-123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxFollows  int
	MaxLikes    int
	MaxComments int
	Seed        int64
}

// Result counts the operations a run performed.
type Result struct {
	Users    int
	Posts    int
	Follows  int
	Likes    int
	Comments int
}

// Seeder populates a database through the repositories and services.
type Seeder struct {
	db         *gorm.DB
	users      repository.UserRepository
	graph      *service.SocialGraphService
	engagement *service.EngagementService
	content    *service.ContentService
}

// NewSeeder wires a Seeder against db. Realtime delivery is off while seeding.
func NewSeeder(db *gorm.DB) *Seeder {
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	notifier := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil)

	return &Seeder{
		db:         db,
		users:      users,
		graph:      service.NewSocialGraphService(users, repository.NewFollowRepository(db), notifier),
		engagement: service.NewEngagementService(users, posts, notifier),
		content:    service.NewContentService(posts, repository.NewCommentRepository(db), notifier),
	}
}

// ClearAll removes every row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.Notification{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Post{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return fmt.Errorf("clear %T: %w", t, err)
			}
		}
		return nil
	})
}

// Run creates users, posts and a random follow/like/comment mesh between them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	f := NewFactory(opts.Seed)
	res := &Result{}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u := f.BuildUser(i+1, string(hashed))
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	for _, u := range users {
		for n := f.Intn(opts.MaxFollows + 1); n > 0; n-- {
			target := users[f.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			if err := s.graph.Follow(ctx, u.ID, target.ID); err != nil {
				return nil, fmt.Errorf("follow %d -> %d: %w", u.ID, target.ID, err)
			}
			res.Follows++
		}
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.Intn(len(users))]
		post, err := s.content.CreatePost(ctx, author.ID, f.PostBody())
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		for n := f.Intn(opts.MaxLikes + 1); n > 0; n-- {
			liker := users[f.Intn(len(users))]
			if err := s.engagement.Like(ctx, liker.ID, post.ID); err != nil {
				return nil, fmt.Errorf("like post %d: %w", post.ID, err)
			}
			res.Likes++
		}
		for n := f.Intn(opts.MaxComments + 1); n > 0; n-- {
			commenter := users[f.Intn(len(users))]
			if _, err := s.content.CreateComment(ctx, service.CreateCommentInput{
				AuthorID: commenter.ID,
				PostID:   post.ID,
				Body:     f.CommentBody(),
			}); err != nil {
				return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			res.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"users", res.Users, "posts", res.Posts, "follows", res.Follows,
		"likes", res.Likes, "comments", res.Comments)
	return res, nil
}

func withDefaults(opts Options) Options {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts < 0 {
		opts.NumPosts = 0
	}
	if opts.MaxFollows <= 0 {
		opts.MaxFollows = 5
	}
	if opts.MaxLikes <= 0 {
		opts.MaxLikes = 5
	}
	if opts.MaxComments <= 0 {
		opts.MaxComments = 3
	}
	return opts
}
