package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Food-Rescue-Hub/domain"
)

func TestUserToken_RoundTrip(t *testing.T) {
	svc := NewJWTServiceWithSecret("test-secret")

	token, err := svc.GenerateTokenUser("3f1a4c4e-9d49-4a53-a7a6-0d7c5a8f0b11", domain.RoleDonor)
	require.NoError(t, err)

	userID, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1a4c4e-9d49-4a53-a7a6-0d7c5a8f0b11", userID)
	assert.Equal(t, domain.RoleDonor, role)
}

func TestUserToken_Rejections(t *testing.T) {
	svc := NewJWTServiceWithSecret("test-secret")

	t.Run("expired", func(t *testing.T) {
		old := &jwtService{secretKey: "test-secret", issuer: Issuer, now: func() time.Time {
			return time.Now().Add(-2 * UserTokenLifetime)
		}}
		token, err := old.GenerateTokenUser("u1", domain.RoleReceiver)
		require.NoError(t, err)

		_, _, err = svc.GetUserIDByToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
		assert.ErrorIs(t, err, domain.ErrAuthentication)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTServiceWithSecret("other").GenerateTokenUser("u1", domain.RoleReceiver)
		require.NoError(t, err)

		_, _, err = svc.GetUserIDByToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		foreign := &jwtService{secretKey: "test-secret", issuer: "SOMEONE_ELSE", now: time.Now}
		token, err := foreign.GenerateTokenUser("u1", domain.RoleReceiver)
		require.NoError(t, err)

		_, _, err = svc.GetUserIDByToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := svc.GetUserIDByToken("not.a.token")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("purpose token cannot log in", func(t *testing.T) {
		token, err := svc.GenerateTokenPurpose("u1", PurposeVerifyEmail, VerifyTokenLifetime)
		require.NoError(t, err)

		_, _, err = svc.GetUserIDByToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestPurposeToken(t *testing.T) {
	svc := NewJWTServiceWithSecret("test-secret")

	token, err := svc.GenerateTokenPurpose("u1", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	userID, err := svc.ValidateTokenPurpose(token, PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = svc.ValidateTokenPurpose(token, "reset_password")
	assert.ErrorIs(t, err, domain.ErrInvalidVerificationPurpose)

	login, err := svc.GenerateTokenUser("u1", domain.RoleDonor)
	require.NoError(t, err)
	_, err = svc.ValidateTokenPurpose(login, PurposeVerifyEmail)
	assert.ErrorIs(t, err, domain.ErrInvalidVerificationPurpose)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	svc, err := NewJWTService()
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrMissingJWTSecret)
	assert.ErrorIs(t, err, domain.ErrInternal)
}
