package service

import (
	"context"
	"sync"
	"testing"

	"chirper/internal/models"
	"chirper/internal/repository"

	"github.com/stretchr/testify/assert"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Equal(t, code, models.ErrorCode(err), err.Error())
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, uint) (bool, error)
	listFn          func(context.Context) ([]models.User, error)
	updateProfileFn func(context.Context, uint, repository.ProfileUpdate) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) { return s.existsFn(ctx, id) }
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error)   { return s.listFn(ctx) }
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, u repository.ProfileUpdate) (*models.User, error) {
	return s.updateProfileFn(ctx, id, u)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:     func(context.Context, *models.User) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		existsFn:     func(context.Context, uint) (bool, error) { return true, nil },
		listFn:       func(context.Context) ([]models.User, error) { return nil, nil },
		updateProfileFn: func(_ context.Context, id uint, u repository.ProfileUpdate) (*models.User, error) {
			return &models.User{ID: id, Name: u.Name, Username: u.Username, Bio: u.Bio}, nil
		},
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	addFn            func(context.Context, uint, uint) (bool, error)
	removeFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Add(ctx context.Context, a, b uint) (bool, error) { return s.addFn(ctx, a, b) }
func (s *followRepoStub) Remove(ctx context.Context, a, b uint) (bool, error) {
	return s.removeFn(ctx, a, b)
}
func (s *followRepoStub) Exists(ctx context.Context, a, b uint) (bool, error) {
	return s.existsFn(ctx, a, b)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, id uint) (int64, error) {
	return s.countFollowersFn(ctx, id)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		addFn:            func(context.Context, uint, uint) (bool, error) { return true, nil },
		removeFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn    func(context.Context, *models.Post) error
	getByIDFn   func(context.Context, uint) (*models.Post, error)
	getDetailFn func(context.Context, uint) (*models.Post, error)
	listFn      func(context.Context, *uint) ([]*models.Post, error)
	likeFn      func(context.Context, uint, uint) (bool, error)
	unlikeFn    func(context.Context, uint, uint) (bool, error)
	isLikedFn   func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetDetail(ctx context.Context, id uint) (*models.Post, error) {
	return s.getDetailFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, authorID *uint) ([]*models.Post, error) {
	return s.listFn(ctx, authorID)
}
func (s *postRepoStub) Like(ctx context.Context, u, p uint) (bool, error) { return s.likeFn(ctx, u, p) }
func (s *postRepoStub) Unlike(ctx context.Context, u, p uint) (bool, error) {
	return s.unlikeFn(ctx, u, p)
}
func (s *postRepoStub) IsLiked(ctx context.Context, u, p uint) (bool, error) {
	return s.isLikedFn(ctx, u, p)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			p.LikedIDs = []uint{}
			return nil
		},
		getByIDFn:   func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id, UserID: 100}, nil },
		getDetailFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:      func(context.Context, *uint) ([]*models.Post, error) { return nil, nil },
		likeFn:      func(context.Context, uint, uint) (bool, error) { return true, nil },
		unlikeFn:    func(context.Context, uint, uint) (bool, error) { return true, nil },
		isLikedFn:   func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn func(context.Context, *models.Comment) error
	created  []*models.Comment
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	if err := s.createFn(ctx, c); err != nil {
		return err
	}
	s.created = append(s.created, c)
	return nil
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{createFn: func(_ context.Context, c *models.Comment) error {
		c.ID = 1
		return nil
	}}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createAndFlagFn func(context.Context, uint, string) (*models.Notification, error)
	listAndDrainFn  func(context.Context, uint) ([]models.Notification, error)
}

func (s *notificationRepoStub) CreateAndFlag(ctx context.Context, id uint, body string) (*models.Notification, error) {
	return s.createAndFlagFn(ctx, id, body)
}
func (s *notificationRepoStub) ListAndDrain(ctx context.Context, id uint) ([]models.Notification, error) {
	return s.listAndDrainFn(ctx, id)
}

type sentNotification struct {
	Operation string
	Target    uint
	Body      string
}

// recordingNotifier captures best-effort notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) NotifyBestEffort(_ context.Context, op string, target uint, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Operation: op, Target: target, Body: body})
}

func (n *recordingNotifier) Sent() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}
