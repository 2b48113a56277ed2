package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-tracker/middleware"
	"task-tracker/models"
	"task-tracker/repositories"
	"task-tracker/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = models.Identity{ID: "u-0", Username: "root", Role: models.RoleAdmin}
	alice = models.Identity{ID: "u-1", Username: "alice", Role: models.RoleUser}
	bob   = models.Identity{ID: "u-2", Username: "bob", Role: models.RoleUser}
)

type taskFixture struct {
	router  *mux.Router
	service *services.TaskService
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	svc := services.NewTaskService(repositories.NewTaskMemoryRepo(), nil)
	for _, who := range []string{"bob", "bob", "alice"} {
		_, err := svc.Create(context.Background(), admin, models.TaskDraft{Title: "Task for " + who, AssignedTo: who})
		require.NoError(t, err)
	}

	h := NewTaskHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/tasks", h.GetTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", h.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", h.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", h.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", h.DeleteTask).Methods(http.MethodDelete)
	return &taskFixture{router: r, service: svc}
}

func (f *taskFixture) do(t *testing.T, caller *models.Identity, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestGetTasks(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(t, &admin, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var all []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)

	rec = f.do(t, &alice, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "03", mine[0].ID)

	carol := models.Identity{ID: "u-3", Username: "carol", Role: models.RoleUser}
	rec = f.do(t, &carol, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlersRequireIdentity(t *testing.T) {
	f := newTaskFixture(t)

	for _, c := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/01"},
		{http.MethodPut, "/api/tasks/01"},
		{http.MethodDelete, "/api/tasks/01"},
	} {
		rec := f.do(t, nil, c.method, c.path, `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, c.method)
	}
}

func TestCreateTask(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(t, &admin, http.MethodPost, "/api/tasks", `{"title":"Ship release","assignedTo":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decodeTask(t, rec)
	assert.Equal(t, models.Task{ID: "04", Title: "Ship release", AssignedTo: "alice", Status: models.StatusInProgress}, task)
}

func TestCreateTask_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Identity
		body   string
		status int
	}{
		{"user forbidden", alice, `{"title":"x","assignedTo":"alice"}`, http.StatusForbidden},
		{"user forbidden before malformed body", alice, `{not json`, http.StatusForbidden},
		{"malformed body", admin, `{not json`, http.StatusBadRequest},
		{"empty body", admin, ``, http.StatusBadRequest},
		{"missing title", admin, `{"assignedTo":"alice"}`, http.StatusUnprocessableEntity},
		{"missing assignee", admin, `{"title":"x"}`, http.StatusUnprocessableEntity},
		{"bad status", admin, `{"title":"x","assignedTo":"alice","status":"blocked"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			caller := tt.caller

			rec := f.do(t, &caller, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])

			all, err := f.service.List(context.Background(), admin)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(t, &alice, http.MethodPut, "/api/tasks/03", `{"id":"99","title":"mine now","status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	task := decodeTask(t, rec)
	assert.Equal(t, "03", task.ID)
	assert.Equal(t, "Task for alice", task.Title)
	assert.Equal(t, models.StatusDone, task.Status)

	rec = f.do(t, &admin, http.MethodPut, "/api/tasks/01", `{"id":"99","title":"Renamed","assignedTo":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	task = decodeTask(t, rec)
	assert.Equal(t, models.Task{ID: "01", Title: "Renamed", AssignedTo: "alice", Status: models.StatusInProgress}, task)
}

func TestUpdateTask_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Identity
		path   string
		body   string
		status int
	}{
		{"not assignee", bob, "/api/tasks/03", `{"status":"done"}`, http.StatusForbidden},
		{"unknown task", admin, "/api/tasks/42", `{"status":"done"}`, http.StatusNotFound},
		{"malformed body", alice, "/api/tasks/03", `{"status":`, http.StatusBadRequest},
		{"not found before malformed body", alice, "/api/tasks/42", `{"status":`, http.StatusNotFound},
		{"forbidden before malformed body", bob, "/api/tasks/03", `{"status":`, http.StatusForbidden},
		{"wrong type", admin, "/api/tasks/03", `{"title":7}`, http.StatusBadRequest},
		{"bad status", alice, "/api/tasks/03", `{"status":"blocked"}`, http.StatusUnprocessableEntity},
		{"empty title", admin, "/api/tasks/03", `{"title":""}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			caller := tt.caller
			before, err := f.service.List(context.Background(), admin)
			require.NoError(t, err)

			rec := f.do(t, &caller, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			after, err := f.service.List(context.Background(), admin)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(t, &alice, http.MethodDelete, "/api/tasks/03", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, &admin, http.MethodDelete, "/api/tasks/02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "02", decodeTask(t, rec).ID)

	rec = f.do(t, &admin, http.MethodDelete, "/api/tasks/02", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, &admin, http.MethodGet, "/api/tasks", "")
	assert.NotContains(t, rec.Body.String(), `"id":"02"`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", services.ErrForbidden), http.StatusForbidden},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrValidation, http.StatusUnprocessableEntity},
		{services.ErrMalformedRequest, http.StatusBadRequest},
		{services.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestGetTask(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(t, &admin, http.MethodGet, "/api/tasks/01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", decodeTask(t, rec).AssignedTo)

	rec = f.do(t, &alice, http.MethodGet, "/api/tasks/03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "03", decodeTask(t, rec).ID)

	assert.Equal(t, http.StatusForbidden, f.do(t, &alice, http.MethodGet, "/api/tasks/01", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, &alice, http.MethodGet, "/api/tasks/99", "").Code)
}
