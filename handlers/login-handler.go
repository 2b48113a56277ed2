package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"task-tracker/models"
	"task-tracker/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type LoginHandler struct {
	UserService *services.UserService
}

func NewLoginHandler(userService *services.UserService) *LoginHandler {
	return &LoginHandler{UserService: userService}
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request format: %w", services.ErrMalformedRequest))
		return
	}

	user, token, err := h.UserService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: user.Username, Role: user.Role})
}

// Register creates a regular account. Admin accounts only come from the
// bootstrap configuration.
func (h *LoginHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request format: %w", services.ErrMalformedRequest))
		return
	}
	if req.Role == models.RoleAdmin {
		writeError(w, r, fmt.Errorf("admin accounts cannot be self-registered: %w", services.ErrForbidden))
		return
	}

	user, err := h.UserService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
