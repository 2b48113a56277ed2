package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/models"
	"task-tracker/repositories"

	"github.com/google/uuid"
)

type NotificationStore interface {
	Save(ctx context.Context, n models.Notification) error
	FindByUsername(ctx context.Context, username string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, username string, id uuid.UUID) error
}

type NotificationService struct {
	store NotificationStore
	now   func() time.Time
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// TaskAssigned records a notification for the assignee of task.
func (s *NotificationService) TaskAssigned(ctx context.Context, task models.Task) error {
	n := models.Notification{
		ID:        uuid.New(),
		Username:  task.AssignedTo,
		TaskID:    task.ID,
		Message:   fmt.Sprintf("You have been assigned to task %s: %s", task.ID, task.Title),
		CreatedAt: s.now().UTC(),
	}
	return s.store.Save(ctx, n)
}

// ForIdentity returns the notifications addressed to the caller, newest first.
func (s *NotificationService) ForIdentity(ctx context.Context, identity models.Identity) ([]models.Notification, error) {
	notifications, err := s.store.FindByUsername(ctx, identity.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead flags a notification of the caller as read. Notifications of
// other users are reported as missing.
func (s *NotificationService) MarkAsRead(ctx context.Context, identity models.Identity, id uuid.UUID) error {
	err := s.store.MarkAsRead(ctx, identity.Username, id)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return err
}
