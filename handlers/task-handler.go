package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"task-tracker/middleware"
	"task-tracker/models"
	"task-tracker/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// identity returns the caller resolved by the auth middleware. Reaching a
// task handler without one is a routing mistake and is reported as 401.
func identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthorized)
	}
	return id, ok
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var draft models.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		if err := h.service.CanCreate(caller); err != nil {
			writeError(w, r, err)
			return
		}
		writeError(w, r, fmt.Errorf("invalid request body: %w", services.ErrMalformedRequest))
		return
	}

	task, err := h.service.Create(r.Context(), caller, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	taskID := mux.Vars(r)["id"]

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		if err := h.service.CanUpdate(r.Context(), caller, taskID); err != nil {
			writeError(w, r, err)
			return
		}
		writeError(w, r, fmt.Errorf("invalid request body: %w", services.ErrMalformedRequest))
		return
	}

	task, err := h.service.Update(r.Context(), caller, taskID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	task, err := h.service.Delete(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
