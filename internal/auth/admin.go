package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AdminAuthCookie = "adminAuth"
	AdminUserCookie = "adminUser"

	// AdminSessionTTL is how long an admin stays logged in after login
	AdminSessionTTL = 24 * time.Hour
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAdminSessionMissing = errors.New("admin session missing")
	ErrAdminSessionInvalid = errors.New("admin session invalid")
	ErrAdminSessionExpired = errors.New("admin session expired")
)

// AdminUser is the JSON blob carried by the adminUser cookie
type AdminUser struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
	Signature string    `json:"sig,omitempty"`
}

// AdminAuthenticator checks admin credentials and signs admin sessions
type AdminAuthenticator struct {
	username     string
	passwordHash string
	secretKey    []byte
	secure       bool
	now          func() time.Time
}

type AdminOption func(*AdminAuthenticator)

// WithAdminClock overrides the time source used for login times and expiry
func WithAdminClock(now func() time.Time) AdminOption {
	return func(a *AdminAuthenticator) {
		a.now = now
	}
}

func NewAdminAuthenticator(username, passwordHash, secretKey string, secure bool, opts ...AdminOption) *AdminAuthenticator {
	a := &AdminAuthenticator{
		username:     username,
		passwordHash: passwordHash,
		secretKey:    []byte(secretKey),
		secure:       secure,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login verifies the credentials and returns a signed admin session
func (a *AdminAuthenticator) Login(username, password string) (*AdminUser, error) {
	if a.username == "" || a.passwordHash == "" {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := CheckPassword(password, a.passwordHash)
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	user := &AdminUser{
		Username:  a.username,
		LoginTime: a.now().UTC().Truncate(time.Second),
	}
	sig, err := a.sign(user)
	if err != nil {
		return nil, err
	}
	user.Signature = sig
	return user, nil
}

func signingString(u *AdminUser) string {
	return u.Username + "|" + u.LoginTime.UTC().Format(time.RFC3339)
}

func (a *AdminAuthenticator) sign(u *AdminUser) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(signingString(u), a.secretKey)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

func (a *AdminAuthenticator) verify(u *AdminUser) bool {
	sig, err := base64.RawURLEncoding.DecodeString(u.Signature)
	if err != nil {
		return false
	}
	return jwt.SigningMethodHS256.Verify(signingString(u), sig, a.secretKey) == nil
}

// Session reads the admin cookies of r. It returns ErrAdminSessionMissing when
// either cookie is absent, ErrAdminSessionInvalid when they cannot be trusted
// and ErrAdminSessionExpired once AdminSessionTTL has passed since login.
func (a *AdminAuthenticator) Session(r *http.Request) (*AdminUser, error) {
	authCookie, err := r.Cookie(AdminAuthCookie)
	if err != nil {
		return nil, ErrAdminSessionMissing
	}
	userCookie, err := r.Cookie(AdminUserCookie)
	if err != nil {
		return nil, ErrAdminSessionMissing
	}
	if authCookie.Value != "true" {
		return nil, ErrAdminSessionInvalid
	}

	raw, err := url.QueryUnescape(userCookie.Value)
	if err != nil {
		return nil, ErrAdminSessionInvalid
	}
	var user AdminUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, ErrAdminSessionInvalid
	}
	if strings.TrimSpace(user.Username) == "" || user.LoginTime.IsZero() || !a.verify(&user) {
		return nil, ErrAdminSessionInvalid
	}

	if a.now().Sub(user.LoginTime) > AdminSessionTTL {
		return nil, ErrAdminSessionExpired
	}
	return &user, nil
}

// Cookies returns the adminAuth and adminUser cookies for user
func (a *AdminAuthenticator) Cookies(user *AdminUser) ([]*http.Cookie, error) {
	blob, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	expires := user.LoginTime.Add(AdminSessionTTL)

	return []*http.Cookie{
		a.cookie(AdminAuthCookie, "true", expires),
		a.cookie(AdminUserCookie, url.QueryEscape(string(blob)), expires),
	}, nil
}

// ClearCookies returns cookies that remove both admin cookies
func (a *AdminAuthenticator) ClearCookies() []*http.Cookie {
	expired := func(name string) *http.Cookie {
		c := a.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		return c
	}
	return []*http.Cookie{expired(AdminAuthCookie), expired(AdminUserCookie)}
}

func (a *AdminAuthenticator) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
