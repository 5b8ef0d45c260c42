package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/core/domain"
)

const testSecret = "unit-test-secret-key"

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Issue("user-42", domain.RoleWarehouseManager)
	require.NoError(t, err)

	actor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", actor.UserID)
	assert.Equal(t, domain.RoleWarehouseManager, actor.Role)
}

func TestVerify_ExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute)

	token, err := issuer.Issue("user-42", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer(testSecret, time.Hour).Issue("user-42", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenIssuer("a-different-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	_, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_UnknownRole(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Issue("user-42", domain.Role("superuser"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
