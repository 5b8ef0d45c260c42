package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/adapter/storage"
	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
)

func newUsersService(store *storage.MemoryStore) *Users {
	return NewUsers(store, auth.NewTokenIssuer("test-secret-0123456789", time.Hour), nil)
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:                  email,
		FirstName:              "Pat",
		LastName:               "Doe",
		PhoneNumber:            "0123456789",
		EmergencyContactNumber: "0987654321",
		Password:               "Sup3r$ecret",
	}
}

func TestInviteRegisterLogin(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	invited, err := svc.Invite(ctx, "pat@example.com", domain.RoleSalesperson)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInvited, invited.Status)

	// Cannot log in before completing registration.
	_, _, err = svc.Login(ctx, "pat@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, domain.ErrUserNotActive)

	registered, err := svc.Register(ctx, registerInput("pat@example.com"))
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, registered.Status)
	assert.Equal(t, domain.RoleSalesperson, registered.Role)

	token, user, err := svc.Login(ctx, "pat@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	_, err := svc.Invite(ctx, "pat@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerInput("pat@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "pat@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newUsersService(storage.NewMemoryStore())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestInvite_DuplicateEmail(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	_, err := svc.Invite(ctx, "pat@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Invite(ctx, "Pat@Example.com", domain.RoleSalesperson)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_RequiresInvitation(t *testing.T) {
	svc := newUsersService(storage.NewMemoryStore())

	_, err := svc.Register(context.Background(), registerInput("stranger@example.com"))
	assert.ErrorIs(t, err, domain.ErrNotInvited)
}

func TestRegister_TwiceFails(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	_, err := svc.Invite(ctx, "pat@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerInput("pat@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("pat@example.com"))
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestDelete_User(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	admin, err := svc.Invite(ctx, "admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	victim, err := svc.Invite(ctx, "gone@example.com", domain.RoleSalesperson)
	require.NoError(t, err)

	actor := domain.Actor{UserID: admin.ID, Role: domain.RoleAdmin}

	require.NoError(t, svc.Delete(ctx, actor, victim.ID))
	_, err = store.UserByID(ctx, victim.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting the same account again reports it missing.
	assert.ErrorIs(t, svc.Delete(ctx, actor, victim.ID), domain.ErrNotFound)
}

func TestDelete_OwnAccountRefused(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	admin, err := svc.Invite(ctx, "admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	actor := domain.Actor{UserID: admin.ID, Role: domain.RoleAdmin}
	assert.ErrorIs(t, svc.Delete(ctx, actor, admin.ID), domain.ErrSelfDeletion)

	// The account is still there.
	_, err = store.UserByID(ctx, admin.ID)
	require.NoError(t, err)
}

func TestRegister_WeakPassword(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newUsersService(store)
	ctx := context.Background()

	_, err := svc.Invite(ctx, "pat@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	in := registerInput("pat@example.com")
	in.Password = "alllowercase"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}
