package repositories

import (
	"context"
	"sync"

	"task-tracker/models"

	"github.com/google/uuid"
)

type NotificationMemoryRepo struct {
	mu     sync.RWMutex
	byUser map[string][]models.Notification
}

func NewNotificationMemoryRepo() *NotificationMemoryRepo {
	return &NotificationMemoryRepo{byUser: make(map[string][]models.Notification)}
}

func (r *NotificationMemoryRepo) Save(ctx context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser[n.Username] = append(r.byUser[n.Username], n)
	return nil
}

// FindByUsername returns the notifications of username, newest first.
func (r *NotificationMemoryRepo) FindByUsername(ctx context.Context, username string) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byUser[username]
	out := make([]models.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (r *NotificationMemoryRepo) MarkAsRead(ctx context.Context, username string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byUser[username]
	for i := range stored {
		if stored[i].ID == id {
			stored[i].IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}
