package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/repositories"
)

type TaskStore interface {
	FindAll(ctx context.Context) ([]models.Task, error)
	FindByAssignee(ctx context.Context, username string) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (models.Task, error)
	// Insert stores task under a newly allocated id and returns it with that id.
	Insert(ctx context.Context, task models.Task) (models.Task, error)
	Replace(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id string) error
}

// AssignmentNotifier is told about every task that gets a new assignee.
type AssignmentNotifier interface {
	TaskAssigned(ctx context.Context, task models.Task) error
}

// TaskService owns the task collection and decides who may read and change
// which task. Admins see and change everything; users see the tasks assigned
// to them and may only change their status.
type TaskService struct {
	mu       sync.Mutex
	store    TaskStore
	notifier AssignmentNotifier
}

// NewTaskService returns a service over store. notifier may be nil.
func NewTaskService(store TaskStore, notifier AssignmentNotifier) *TaskService {
	return &TaskService{store: store, notifier: notifier}
}

func (s *TaskService) List(ctx context.Context, identity models.Identity) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		tasks []models.Task
		err   error
	)
	if identity.IsAdmin() {
		tasks, err = s.store.FindAll(ctx)
	} else {
		tasks, err = s.store.FindByAssignee(ctx, identity.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CanCreate reports whether identity may create tasks at all.
func (s *TaskService) CanCreate(identity models.Identity) error {
	if !identity.IsAdmin() {
		return fmt.Errorf("only admins can create tasks: %w", ErrForbidden)
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, identity models.Identity, draft models.TaskDraft) (models.Task, error) {
	if err := s.CanCreate(identity); err != nil {
		return models.Task{}, err
	}
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.AssignedTo) == "" {
		return models.Task{}, fmt.Errorf("title and assignedTo are required: %w", ErrValidation)
	}
	status := draft.Status
	if status == "" {
		status = models.StatusInProgress
	}
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}

	s.mu.Lock()
	task, err := s.store.Insert(ctx, models.Task{
		Title:       draft.Title,
		Description: draft.Description,
		AssignedTo:  strings.TrimSpace(draft.AssignedTo),
		Status:      status,
	})
	s.mu.Unlock()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s and assigned to %s", task.ID, identity.Username, task.AssignedTo)
	s.notifyAssigned(ctx, task)
	return task, nil
}

// Get returns one task. Like Update, a missing task is reported before
// ownership.
func (s *TaskService) Get(ctx context.Context, identity models.Identity, taskID string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.authorizeUpdate(ctx, identity, taskID)
}

// CanUpdate runs the lookup and ownership checks of Update without changing
// anything.
func (s *TaskService) CanUpdate(ctx context.Context, identity models.Identity, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.authorizeUpdate(ctx, identity, taskID)
	return err
}

func (s *TaskService) Update(ctx context.Context, identity models.Identity, taskID string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	task, err := s.authorizeUpdate(ctx, identity, taskID)
	if err != nil {
		s.mu.Unlock()
		return models.Task{}, err
	}

	previousAssignee := task.AssignedTo
	updated, err := applyPatch(task, patch, identity.IsAdmin())
	if err != nil {
		s.mu.Unlock()
		return models.Task{}, err
	}
	if updated != task {
		if err := s.store.Replace(ctx, updated); err != nil {
			s.mu.Unlock()
			return models.Task{}, fmt.Errorf("failed to update task %s: %w", taskID, storeErr(err))
		}
	}
	s.mu.Unlock()

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s (status %s)", updated.ID, identity.Username, updated.Status)
	if updated.AssignedTo != previousAssignee {
		s.notifyAssigned(ctx, updated)
	}
	return updated, nil
}

// authorizeUpdate loads taskID and checks that identity may see and change it.
func (s *TaskService) authorizeUpdate(ctx context.Context, identity models.Identity, taskID string) (models.Task, error) {
	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", taskID, storeErr(err))
	}
	if !identity.IsAdmin() && task.AssignedTo != identity.Username {
		return models.Task{}, fmt.Errorf("task %s is not assigned to %s: %w", taskID, identity.Username, ErrForbidden)
	}
	return task, nil
}

// applyPatch returns task with patch applied. Admins may change every field
// but the id; everyone else only the status. The id is never taken from the
// patch, which has no such field.
func applyPatch(task models.Task, patch models.TaskPatch, admin bool) (models.Task, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return task, fmt.Errorf("unknown status %q: %w", *patch.Status, ErrValidation)
	}
	if !admin {
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		return task, nil
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return task, fmt.Errorf("title must not be empty: %w", ErrValidation)
		}
		task.Title = *patch.Title
	}
	if patch.AssignedTo != nil {
		if strings.TrimSpace(*patch.AssignedTo) == "" {
			return task, fmt.Errorf("assignedTo must not be empty: %w", ErrValidation)
		}
		task.AssignedTo = strings.TrimSpace(*patch.AssignedTo)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, identity models.Identity, taskID string) (models.Task, error) {
	if !identity.IsAdmin() {
		return models.Task{}, fmt.Errorf("only admins can delete tasks: %w", ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", taskID, storeErr(err))
	}
	if err := s.store.Delete(ctx, taskID); err != nil {
		return models.Task{}, fmt.Errorf("failed to delete task %s: %w", taskID, storeErr(err))
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", taskID, identity.Username)
	return task, nil
}

func (s *TaskService) notifyAssigned(ctx context.Context, task models.Task) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.TaskAssigned(ctx, task); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_FAILED, Description: Could not notify %s about task %s: %v", task.AssignedTo, task.ID, err)
	}
}

// storeErr translates a missing record into ErrNotFound.
func storeErr(err error) error {
	if errors.Is(err, repositories.ErrTaskNotFound) {
		return ErrNotFound
	}
	return err
}
