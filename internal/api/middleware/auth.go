package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/licorice-storefront/internal/auth"
	"github.com/example/licorice-storefront/internal/logger"
)

// SessionCookie holds the shopper session token
const SessionCookie = "session_token"

// AdminLoginPath is the only /admin path reachable without an admin session
const AdminLoginPath = "/admin/login"

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type contextKey string

const (
	SessionContextKey contextKey = "session"
	AdminContextKey   contextKey = "admin"
)

// Session makes sure every request carries a shopper session. A missing,
// invalid or expired token starts a new session and sets a fresh cookie.
func Session(tokens *auth.SessionTokenService, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if claims, err := tokens.ValidateToken(cookie.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), claims.SessionID)))
					return
				}
			}

			token, sessionID, expiresAt, err := tokens.NewSession()
			if err != nil {
				logger.Error(r.Context()).Err(err).Msg("Failed to start shopper session")
				respondError(w, "failed to start session", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				Expires:  expiresAt,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// WithSessionID stores the shopper session ID in ctx
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionContextKey, sessionID)
}

// SessionID returns the shopper session ID of the request context
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}

// wantsJSON reports whether the client asked for a JSON answer instead of a
// redirect
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// AdminGate protects /admin routes. Browsers are redirected to the login page
// with a reason code; JSON clients get 401.
func AdminGate(admin *auth.AdminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == AdminLoginPath {
				next.ServeHTTP(w, r)
				return
			}

			user, err := admin.Session(r)
			if err == nil {
				ctx := context.WithValue(r.Context(), AdminContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			reason := ""
			switch {
			case errors.Is(err, auth.ErrAdminSessionExpired):
				reason = "session_expired"
				for _, c := range admin.ClearCookies() {
					http.SetCookie(w, c)
				}
			case errors.Is(err, auth.ErrAdminSessionInvalid):
				reason = "invalid_session"
			}

			logger.Debug(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Admin access denied")

			if wantsJSON(r) {
				respondError(w, err.Error(), http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, LoginRedirect(reason), http.StatusTemporaryRedirect)
		})
	}
}

// LoginRedirect returns the admin login URL carrying reason, if any
func LoginRedirect(reason string) string {
	if reason == "" {
		return AdminLoginPath
	}
	return AdminLoginPath + "?" + url.Values{"reason": {reason}}.Encode()
}

// GetAdminFromContext retrieves the logged in admin from the request context
func GetAdminFromContext(ctx context.Context) (*auth.AdminUser, bool) {
	user, ok := ctx.Value(AdminContextKey).(*auth.AdminUser)
	return user, ok
}
