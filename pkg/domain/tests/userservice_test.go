package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

func setupUsers(t *testing.T) (service.UserService, *mockUserRepository, *mockSessionRepository, *mockEventDispatcher) {
	t.Helper()
	repo := newMockUserRepository()
	sessions := &mockSessionRepository{store: make(map[string]*model.Session)}
	dispatcher := &mockEventDispatcher{}
	return service.NewUserService(repo, sessions, &mockPasswordManager{}, dispatcher, 0), repo, sessions, dispatcher
}

func TestRegisterNewUser(t *testing.T) {
	users, repo, _, dispatcher := setupUsers(t)

	user, err := users.RegisterNewUser(context.Background(), " Jane ", " Jane@Example.COM ", "password123")

	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "password123-hashed", user.PasswordHash)
	assert.False(t, user.IsAdmin)
	assert.Nil(t, user.RoleID)
	assert.Equal(t, []string{"UserRegistered"}, dispatcher.types())

	stored, err := repo.Find(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, stored.Email)

	t.Run("Email is unique", func(t *testing.T) {
		_, err := users.RegisterNewUser(context.Background(), "Other", "jane@example.com", "password123")
		assert.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("Short password", func(t *testing.T) {
		_, err := users.RegisterNewUser(context.Background(), "Bob", "bob@example.com", "short")
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("Missing fields", func(t *testing.T) {
		_, err := users.RegisterNewUser(context.Background(), "", "", "password123")
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"name", "email"}, validationErr.Fields)
	})
}

func TestCreateAdmin(t *testing.T) {
	users, _, _, dispatcher := setupUsers(t)

	admin, err := users.CreateAdmin(context.Background(), "Root", "root@example.com", "supersecret")

	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Empty(t, dispatcher.types())
}

func TestLoginAndAuthenticate(t *testing.T) {
	users, _, sessions, _ := setupUsers(t)
	registered, err := users.RegisterNewUser(context.Background(), "Jane", "jane@example.com", "password123")
	require.NoError(t, err)

	t.Run("Wrong password", func(t *testing.T) {
		_, err := users.Login(context.Background(), "jane@example.com", "nope")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := users.Login(context.Background(), "ghost@example.com", "password123")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	session, err := users.Login(context.Background(), "JANE@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, registered.ID, session.UserID)
	assert.WithinDuration(t, time.Now().Add(service.DefaultSessionTTL), session.ExpiresAt, time.Minute)

	user, err := users.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	t.Run("Empty token", func(t *testing.T) {
		_, err := users.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("Expired session", func(t *testing.T) {
		expired := *sessions.store[session.Token]
		expired.Token = "expired-token"
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		sessions.store[expired.Token] = &expired

		_, err := users.Authenticate(context.Background(), expired.Token)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("Logout ends the session", func(t *testing.T) {
		require.NoError(t, users.Logout(context.Background(), session.Token))
		_, err := users.Authenticate(context.Background(), session.Token)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})
}

func TestSessionTokensAreUnique(t *testing.T) {
	users, _, _, _ := setupUsers(t)
	_, err := users.RegisterNewUser(context.Background(), "Jane", "jane@example.com", "password123")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		session, err := users.Login(context.Background(), "jane@example.com", "password123")
		require.NoError(t, err)
		assert.False(t, seen[session.Token])
		seen[session.Token] = true
	}
}
