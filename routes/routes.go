package routes

import (
	"net/http"

	"task-tracker/handlers"
	"task-tracker/middleware"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Tasks         *handlers.TaskHandler
	Login         *handlers.LoginHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
}

// NewRouter wires every endpoint. Everything under /api except login and
// register goes through the auth middleware first.
func NewRouter(h Handlers, verifier middleware.Verifier, corsOrigin string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", h.Login.Login).Methods(http.MethodPost)
	api.HandleFunc("/register", h.Login.Register).Methods(http.MethodPost)

	secured := api.NewRoute().Subrouter()
	secured.Use(middleware.JWTAuthMiddleware(verifier))
	secured.HandleFunc("/tasks", h.Tasks.GetTasks).Methods(http.MethodGet)
	secured.HandleFunc("/tasks", h.Tasks.CreateTask).Methods(http.MethodPost)
	secured.HandleFunc("/tasks/{id}", h.Tasks.GetTask).Methods(http.MethodGet)
	secured.HandleFunc("/tasks/{id}", h.Tasks.UpdateTask).Methods(http.MethodPut)
	secured.HandleFunc("/tasks/{id}", h.Tasks.DeleteTask).Methods(http.MethodDelete)
	secured.HandleFunc("/users", h.Users.GetUsers).Methods(http.MethodGet)
	secured.HandleFunc("/notifications", h.Notifications.GetNotifications).Methods(http.MethodGet)
	secured.HandleFunc("/notifications/{id}/read", h.Notifications.MarkNotificationAsRead).Methods(http.MethodPut)

	return middleware.EnableCORS(corsOrigin)(r)
}
