package services

import (
	"context"
	"testing"
	"time"

	"task-tracker/models"
	"task-tracker/repositories"
	"task-tracker/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *utils.TokenManager) {
	t.Helper()
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	return NewUserService(repositories.NewUserMemoryRepo(), tokens), tokens
}

func TestRegister(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{
		FullName: "Alice <Liddell>",
		Username: "alice",
		Password: "wonderland",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "Alice &lt;Liddell&gt;", user.FullName)
	assert.NotEqual(t, "wonderland", user.Password)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"short username", RegisterRequest{Username: "al", Password: "secret1"}, ErrValidation},
		{"short password", RegisterRequest{Username: "alice", Password: "123"}, ErrValidation},
		{"unknown role", RegisterRequest{Username: "alice", Password: "secret1", Role: "manager"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newUserService(t)
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newUserService(t)
	req := RegisterRequest{Username: "alice", Password: "secret1"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, tokens := newUserService(t)
	registered, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	identity, ok := tokens.Verify(context.Background(), token)
	require.True(t, ok)
	assert.Equal(t, models.Identity{ID: registered.ID, Username: "alice", Role: models.RoleUser}, identity)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "", "secret1")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "rootpass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "other-pass"))

	user, _, err := svc.Login(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestEnsureAdmin_ExistingNonAdmin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "root", Password: "rootpass"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "root", "rootpass"), ErrConflict)
}

func TestListUsers(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "rootpass"))
	for _, name := range []string{"bob", "alice"} {
		_, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "secret1"})
		require.NoError(t, err)
	}

	_, err := svc.List(ctx, alice)
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, models.RoleAdmin, users[2].Role)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}

	// Listing must not clear the stored hashes.
	_, _, err = svc.Login(ctx, "alice", "secret1")
	assert.NoError(t, err)
}
