package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// SessionTokenExpiry is the lifetime of a shopper session cookie
const SessionTokenExpiry = 30 * 24 * time.Hour

// SessionClaims identifies an anonymous shopper session
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenService issues and validates shopper session tokens
type SessionTokenService struct {
	secretKey []byte
	expiry    time.Duration
}

// NewSessionTokenService creates a new session token service
func NewSessionTokenService(secretKey string, expiry time.Duration) *SessionTokenService {
	if expiry <= 0 {
		expiry = SessionTokenExpiry
	}
	return &SessionTokenService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// NewSession starts a session with a fresh ID and returns its signed token
func (s *SessionTokenService) NewSession() (token, sessionID string, expiresAt time.Time, err error) {
	sessionID = uuid.NewString()
	token, expiresAt, err = s.GenerateToken(sessionID)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, sessionID, expiresAt, nil
}

// GenerateToken signs a token for an existing session ID
func (s *SessionTokenService) GenerateToken(sessionID string) (string, time.Time, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty session id", ErrInvalidToken)
	}

	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a session token and returns its claims
func (s *SessionTokenService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry returns the session token lifetime
func (s *SessionTokenService) Expiry() time.Duration {
	return s.expiry
}
