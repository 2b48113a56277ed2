package repositories

import (
	"context"
	"sync"

	"task-tracker/models"
)

// TaskMemoryRepo keeps tasks in insertion order. Ids come from a counter that
// only grows, so an id is never handed out twice.
type TaskMemoryRepo struct {
	mu    sync.RWMutex
	tasks []models.Task
	seq   int64
}

func NewTaskMemoryRepo() *TaskMemoryRepo {
	return &TaskMemoryRepo{}
}

func (r *TaskMemoryRepo) FindAll(ctx context.Context) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *TaskMemoryRepo) FindByAssignee(ctx context.Context, username string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Task{}
	for _, t := range r.tasks {
		if t.AssignedTo == username {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TaskMemoryRepo) FindByID(ctx context.Context, id string) (models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return r.tasks[i], nil
}

// Insert assigns the next id to task and appends it.
func (r *TaskMemoryRepo) Insert(ctx context.Context, task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	task.ID = formatTaskID(r.seq)
	r.tasks = append(r.tasks, task)
	return task, nil
}

func (r *TaskMemoryRepo) Replace(ctx context.Context, task models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(task.ID)
	if i < 0 {
		return ErrTaskNotFound
	}
	r.tasks[i] = task
	return nil
}

func (r *TaskMemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

func (r *TaskMemoryRepo) indexOf(id string) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
