package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/licorice-storefront/internal/api/middleware"
	"github.com/example/licorice-storefront/internal/auth"
	"github.com/example/licorice-storefront/internal/logger"
)

// AuthHandlers handles admin login and logout
type AuthHandlers struct {
	admin *auth.AdminAuthenticator
}

func NewAuthHandlers(admin *auth.AdminAuthenticator) *AuthHandlers {
	return &AuthHandlers{admin: admin}
}

// LoginRequest represents the admin login body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminResponse represents the logged in admin
type AdminResponse struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func adminResponse(u *auth.AdminUser) AdminResponse {
	return AdminResponse{
		Username:  u.Username,
		LoginTime: u.LoginTime,
		ExpiresAt: u.LoginTime.Add(auth.AdminSessionTTL),
	}
}

// Login accepts a JSON body or a login form
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			respondJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.admin.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn(r.Context()).Str("username", req.Username).Msg("Admin login rejected")
			respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Admin login failed")
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	cookies, err := h.admin.Cookies(user)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to build admin cookies")
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}

	logger.Info(r.Context()).Str("username", user.Username).Msg("Admin logged in")
	respondJSON(w, http.StatusOK, map[string]any{"user": adminResponse(user)})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAdminCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Session returns the admin of the current gated request
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAdminFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": adminResponse(user)})
}

func (h *AuthHandlers) clearAdminCookies(w http.ResponseWriter) {
	for _, c := range h.admin.ClearCookies() {
		http.SetCookie(w, c)
	}
}

// respondJSONError writes a JSON error response
func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
