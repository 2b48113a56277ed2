package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	FindAll(ctx context.Context) ([]models.User, error)
}

type TokenIssuer interface {
	GenerateToken(identity models.Identity) (string, error)
}

type UserService struct {
	users  UserStore
	tokens TokenIssuer
}

func NewUserService(users UserStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

type RegisterRequest struct {
	FullName string      `json:"fullName"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func validateCredentials(username, password string) error {
	if len(username) < 3 || len(username) > 20 {
		return fmt.Errorf("username must be between 3 and 20 characters: %w", ErrValidation)
	}
	if len(password) < 6 || len(password) > 72 {
		return fmt.Errorf("password must be between 6 and 72 characters: %w", ErrValidation)
	}
	return nil
}

// Register stores a new account with a bcrypt-hashed password. Role defaults
// to user.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateCredentials(username, req.Password); err != nil {
		return models.User{}, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New().String(),
		FullName: html.EscapeString(strings.TrimSpace(req.FullName)),
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			return models.User{}, fmt.Errorf("user %s already exists: %w", username, ErrConflict)
		}
		return models.User{}, err
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.Username, user.Role)
	return user, nil
}

// Login checks the password of username and issues a token for the account.
// Unknown users and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, username, password string) (models.User, string, error) {
	if username == "" || password == "" {
		return models.User{}, "", fmt.Errorf("username and password are required: %w", ErrMalformedRequest)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Unknown user %s", username)
		return models.User{}, "", fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if err != nil {
		return models.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for %s", username)
		return models.User{}, "", fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	token, err := s.tokens.GenerateToken(user.Identity())
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %w", err)
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", username)
	return user, token, nil
}

// List returns every account for the assignee picker. Passwords are cleared.
func (s *UserService) List(ctx context.Context, identity models.Identity) ([]models.User, error) {
	if !identity.IsAdmin() {
		return nil, fmt.Errorf("only admins can list users: %w", ErrForbidden)
	}
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// EnsureAdmin creates the bootstrap admin account. An existing admin with the
// same username is left alone; an existing non-admin account is an error.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			logging.Logger.Errorf("Event ID: ADMIN_BOOTSTRAP_CONFLICT, Description: User %s exists with role %s", username, existing.Role)
			return fmt.Errorf("bootstrap admin %s already exists with role %s: %w", username, existing.Role, ErrConflict)
		}
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}
	_, err = s.Register(ctx, RegisterRequest{FullName: "Administrator", Username: username, Password: password, Role: models.RoleAdmin})
	return err
}
