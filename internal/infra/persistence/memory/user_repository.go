// Package memory contains an in-process user directory for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bmauth/internal/domain/entity"
	"bmauth/internal/domain/repository"
)

// userRepository keeps users keyed by ID with a secondary email index.
// Both maps are guarded by one mutex so the uniqueness check and the insert are atomic.
type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

// NewUserRepository creates an empty in-memory directory.
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.byEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	if _, ok := repo.byID[user.ID]; ok {
		return repository.ErrUserIDTaken
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = repo.now().UTC()
	}

	stored := *user
	repo.byID[user.ID] = &stored
	repo.byEmail[user.Email] = user.ID

	return nil
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	id, ok := repo.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	found := *repo.byID[id]

	return &found, nil
}

func (repo *userRepository) List(_ context.Context) ([]*entity.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	users := make([]*entity.User, 0, len(repo.byID))
	for _, user := range repo.byID {
		copied := *user
		users = append(users, &copied)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}

		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}
