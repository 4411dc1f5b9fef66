package service_test

import (
	"context"
	"testing"
	"time"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/service"
	"sweetshop-api/internal/testutil"
	"sweetshop-api/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (service.AuthService, *jwt.Manager, repository.UserRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	tokens := jwt.NewManager("test-secret", time.Hour)
	users := repository.NewUserRepo(db)
	return service.NewAuthService(users, tokens), tokens, users
}

func TestRegisterAndLogin(t *testing.T) {
	auth, tokens, _ := newAuth(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, &service.RegisterRequest{
		Name:     "Ada Lovelace",
		Email:    "  Ada@Example.com ",
		Password: "Secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", registered.User.Email)
	assert.Equal(t, model.RoleUser, registered.User.Role)

	claims, err := tokens.ValidateToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	loggedIn, err := auth.Login(ctx, "ADA@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = auth.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Register(ctx, &service.RegisterRequest{Name: "Ada Again", Email: "ada@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, service.ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := newAuth(t)

	cases := map[string]service.RegisterRequest{
		"short name":     {Name: "A", Email: "a@example.com", Password: "Secret123"},
		"digits in name": {Name: "R2D2", Email: "a@example.com", Password: "Secret123"},
		"bad email":      {Name: "Ada", Email: "not-an-email", Password: "Secret123"},
		"short password": {Name: "Ada", Email: "a@example.com", Password: "Se1"},
		"no uppercase":   {Name: "Ada", Email: "a@example.com", Password: "secret123"},
		"no digit":       {Name: "Ada", Email: "a@example.com", Password: "SecretPass"},
	}
	for name, req := range cases {
		req := req
		t.Run(name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), &req)
			assert.True(t, service.IsValidation(err), "got %v", err)
		})
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	auth, _, users := newAuth(t)
	ctx := context.Background()

	require.NoError(t, auth.EnsureAdmin(ctx, "admin@sweetshop.com", "Password123"))
	require.NoError(t, auth.EnsureAdmin(ctx, "admin@sweetshop.com", "Another123"))

	admin, err := users.FindByEmail(ctx, "admin@sweetshop.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CheckPassword("Password123"))
}

func TestProfileAndPasswordReset(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, &service.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	profile, err := auth.UpdateProfile(ctx, registered.User.ID, "Ada King")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", profile.Name)

	got, err := auth.GetProfile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada King", got.Name)

	require.NoError(t, auth.ResetPassword(ctx, "ada@example.com", "Changed456"))
	_, err = auth.Login(ctx, "ada@example.com", "Changed456")
	assert.NoError(t, err)

	assert.ErrorIs(t, auth.ResetPassword(ctx, "ghost@example.com", "Changed456"), service.ErrUserNotFound)
}
