package repositories

import (
	"context"
	"sort"
	"sync"

	"task-tracker/models"
)

type UserMemoryRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserMemoryRepo() *UserMemoryRepo {
	return &UserMemoryRepo{users: make(map[string]models.User)}
}

func (r *UserMemoryRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *UserMemoryRepo) Create(ctx context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return ErrUsernameTaken
	}
	r.users[user.Username] = user
	return nil
}

// FindAll returns every account ordered by username.
func (r *UserMemoryRepo) FindAll(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
