package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func newTestSessionService() *SessionTokenService {
	return NewSessionTokenService(testSecret, time.Hour)
}

func TestNewSessionTokenService_DefaultExpiry(t *testing.T) {
	service := NewSessionTokenService(testSecret, 0)
	assert.Equal(t, SessionTokenExpiry, service.Expiry())
}

func TestSessionTokenService_NewSession(t *testing.T) {
	service := newTestSessionService()

	token, sessionID, expiresAt, err := service.NewSession()

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, sessionID)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(61*time.Minute)))

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, sessionID, claims.Subject)
}

func TestSessionTokenService_NewSession_UniqueIDs(t *testing.T) {
	service := newTestSessionService()

	_, first, _, err := service.NewSession()
	require.NoError(t, err)
	_, second, _, err := service.NewSession()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSessionTokenService_GenerateToken_EmptyID(t *testing.T) {
	service := newTestSessionService()

	token, _, err := service.GenerateToken("  ")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, token)
}

func TestSessionTokenService_ValidateToken_Expired(t *testing.T) {
	service := NewSessionTokenService(testSecret, time.Millisecond)

	token, _, err := service.GenerateToken("session-1")
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestSessionTokenService_ValidateToken_Invalid(t *testing.T) {
	service := newTestSessionService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestSessionTokenService_ValidateToken_WrongSignature(t *testing.T) {
	service1 := NewSessionTokenService("secret-key-1", time.Hour)
	service2 := NewSessionTokenService("secret-key-2", time.Hour)

	token, _, err := service1.GenerateToken("session-1")
	require.NoError(t, err)

	claims, err := service2.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestSessionTokenService_ValidateToken_WrongAlgorithm(t *testing.T) {
	service := newTestSessionService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{SessionID: "session-1"})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestSessionTokenService_ValidateToken_MissingSessionID(t *testing.T) {
	service := newTestSessionService()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := service.ValidateToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
