package repository

import (
	"context"

	"chirper/internal/cache"
	"chirper/internal/models"
	"chirper/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations, including the like relation.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID loads the bare post row (no author, likes or comments).
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetDetail loads the post with author, liked ids and comments (each with author), newest-first.
	GetDetail(ctx context.Context, id uint) (*models.Post, error)
	// List returns posts newest-first, optionally restricted to one author.
	List(ctx context.Context, authorID *uint) ([]*models.Post, error)
	Like(ctx context.Context, userID, postID uint) (added bool, err error)
	Unlike(ctx context.Context, userID, postID uint) (removed bool, err error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
}

type postRepository struct {
	db    *gorm.DB
	users UserRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, users: NewUserRepository(db)}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	post.LikedIDs = []uint{}
	post.Comments = []models.Comment{}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

// GetDetail caches only the post skeleton (row, liked ids, comment rows). Authors are read
// through the user cache on every call so flag and profile changes show up at once.
func (r *postRepository) GetDetail(ctx context.Context, id uint) (*models.Post, error) {
	post, err := cache.Aside(ctx, cache.PostKey(id), cache.PostTTL, func() (models.Post, error) {
		defer observability.TrackQuery("select", "posts")()

		var p models.Post
		err := r.db.WithContext(ctx).
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at DESC, id DESC")
			}).
			First(&p, id).Error
		if err != nil {
			return p, translateError(err, "Post", id)
		}
		if err := r.attachLikedIDs(ctx, []*models.Post{&p}); err != nil {
			return p, err
		}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.attachAuthors(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// attachAuthors fills the post author and every comment author, one lookup per distinct user.
// A comment whose author no longer exists keeps a nil User.
func (r *postRepository) attachAuthors(ctx context.Context, post *models.Post) error {
	seen := make(map[uint]*models.User)
	lookup := func(id uint) (*models.User, error) {
		if u, ok := seen[id]; ok {
			return u, nil
		}
		u, err := r.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		seen[id] = u
		return u, nil
	}

	author, err := lookup(post.UserID)
	if err != nil {
		return err
	}
	post.User = *author

	for i := range post.Comments {
		u, err := lookup(post.Comments[i].UserID)
		if models.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		post.Comments[i].User = u
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, authorID *uint) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		})
	if authorID != nil {
		q = q.Where("user_id = ?", *authorID)
	}

	var posts []*models.Post
	if err := q.Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.attachLikedIDs(ctx, posts); err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
	}
	return posts, nil
}

// attachLikedIDs fills LikedIDs for posts with a single query over likes.
func (r *postRepository) attachLikedIDs(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Select("user_id", "post_id").
		Where("post_id IN ?", ids).
		Order("id ASC").
		Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}

	byPost := make(map[uint][]uint, len(posts))
	for _, l := range likes {
		byPost[l.PostID] = append(byPost[l.PostID], l.UserID)
	}
	for _, p := range posts {
		p.LikedIDs = nonNil(byPost[p.ID])
	}
	return nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("insert", "likes")()

	like := models.Like{UserID: userID, PostID: postID}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return false, translateWriteError(res.Error, "Post", postID)
	}

	cache.InvalidatePost(ctx, postID)
	return res.RowsAffected > 0, nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("delete", "likes")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}

	cache.InvalidatePost(ctx, postID)
	return res.RowsAffected > 0, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
