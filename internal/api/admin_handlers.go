package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/licorice-storefront/internal/apiclient"
	"github.com/example/licorice-storefront/internal/backend"
	"github.com/example/licorice-storefront/internal/logger"
)

// AdminHandlers serves the admin console API. Every call goes to the backend
// with the service's bearer token.
type AdminHandlers struct {
	auth    *AuthHandlers
	backend *backend.Client
}

func NewAdminHandlers(authHandlers *AuthHandlers, backendClient *backend.Client) *AdminHandlers {
	return &AdminHandlers{
		auth:    authHandlers,
		backend: backendClient,
	}
}

// fail responds with the backend error. When the backend session could not be
// refreshed the admin is logged out as well.
func (h *AdminHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apiclient.IsSessionExpired(err) {
		logger.Warn(r.Context()).Msg("Backend session expired, logging admin out")
		h.auth.clearAdminCookies(w)
		respondJSONError(w, "Session expired, please log in again", http.StatusUnauthorized)
		return
	}
	respondBackendError(w, r, err)
}

// Flavor Handlers

func (h *AdminHandlers) ListFlavors(w http.ResponseWriter, r *http.Request) {
	flavors, err := h.backend.Flavors.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flavors)
}

func (h *AdminHandlers) CreateFlavor(w http.ResponseWriter, r *http.Request) {
	var req backend.FlavorInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flavor, err := h.backend.Flavors.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, flavor)
}

func (h *AdminHandlers) UpdateFlavor(w http.ResponseWriter, r *http.Request) {
	var req backend.FlavorInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flavor, err := h.backend.Flavors.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flavor)
}

func (h *AdminHandlers) DeleteFlavor(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Flavors.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Flavor deleted"})
}

// Message Handlers

func (h *AdminHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.backend.Contact.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *AdminHandlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Contact.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}

// Newsletter Handlers

func (h *AdminHandlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.backend.Newsletter.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subscribers)
}

func (h *AdminHandlers) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Newsletter.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Subscriber deleted"})
}

// Return Handlers

func (h *AdminHandlers) ListReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.backend.Returns.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, returns)
}

// UpdateReturnRequest is the body of PUT /admin/api/returns/{id}
type UpdateReturnRequest struct {
	Status backend.ReturnStatus `json:"status"`
}

func (h *AdminHandlers) UpdateReturn(w http.ResponseWriter, r *http.Request) {
	var req UpdateReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ret, err := h.backend.Returns.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ret)
}

func (h *AdminHandlers) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Returns.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Return deleted"})
}
