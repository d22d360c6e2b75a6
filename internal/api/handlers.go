package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/example/licorice-storefront/internal/api/middleware"
	"github.com/example/licorice-storefront/internal/apiclient"
	"github.com/example/licorice-storefront/internal/backend"
	"github.com/example/licorice-storefront/internal/domain/cart"
	"github.com/example/licorice-storefront/internal/domain/favorites"
	"github.com/example/licorice-storefront/internal/domain/product"
	"github.com/example/licorice-storefront/internal/logger"
	"github.com/example/licorice-storefront/internal/pricing"
	"github.com/example/licorice-storefront/internal/session"
)

// Handlers serves the shopper facing JSON API
type Handlers struct {
	sessions *session.Registry
	backend  *backend.Client
}

func NewHandlers(sessions *session.Registry, backendClient *backend.Client) *Handlers {
	return &Handlers{
		sessions: sessions,
		backend:  backendClient,
	}
}

func (h *Handlers) cartFor(r *http.Request) *cart.Store {
	return h.sessions.Cart(r.Context(), middleware.SessionID(r.Context()))
}

func (h *Handlers) favoritesFor(r *http.Request) *favorites.Store {
	return h.sessions.Favorites(r.Context(), middleware.SessionID(r.Context()))
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartFor(r).Summary())
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	c := h.cartFor(r)
	c.Add(r.Context(), p)
	respondJSON(w, http.StatusOK, c.Summary())
}

// UpdateQuantityRequest is the body of PUT /api/cart/items/{id}
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c := h.cartFor(r)
	c.UpdateQuantity(r.Context(), product.ID(mux.Vars(r)["id"]), req.Quantity)
	respondJSON(w, http.StatusOK, c.Summary())
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	c.Remove(r.Context(), product.ID(mux.Vars(r)["id"]))
	respondJSON(w, http.StatusOK, c.Summary())
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	c.Clear(r.Context())
	respondJSON(w, http.StatusOK, c.Summary())
}

// Pricing Handlers

// PricingResponse is the quote for a bag count
type PricingResponse struct {
	Quantity  int                    `json:"quantity"`
	UnitPrice decimal.Decimal        `json:"unit_price"`
	TierLabel string                 `json:"tier_label"`
	Subtotal  decimal.Decimal        `json:"subtotal"`
	Shipping  pricing.ShippingTier   `json:"shipping"`
	NextTier  *pricing.NextTier      `json:"next_tier,omitempty"`
	Tiers     []pricing.DiscountTier `json:"tiers"`
}

func (h *Handlers) GetPricing(w http.ResponseWriter, r *http.Request) {
	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q < 1 {
			respondJSONError(w, "quantity must be a positive integer", http.StatusBadRequest)
			return
		}
		quantity = q
	}
	premium, _ := strconv.ParseBool(r.URL.Query().Get("premium"))

	tier := pricing.TierFor(quantity)
	respondJSON(w, http.StatusOK, PricingResponse{
		Quantity:  quantity,
		UnitPrice: tier.UnitPrice,
		TierLabel: tier.Label,
		Subtotal:  tier.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Shipping:  pricing.ShippingFor(quantity, premium),
		NextTier:  pricing.NextTierMessage(quantity),
		Tiers:     pricing.DiscountTiers,
	})
}

// Favorites Handlers

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.favoritesFor(r).List())
}

func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	f := h.favoritesFor(r)
	f.Add(r.Context(), p)
	respondJSON(w, http.StatusOK, f.List())
}

func (h *Handlers) IsFavorite(w http.ResponseWriter, r *http.Request) {
	id := product.ID(mux.Vars(r)["id"])
	respondJSON(w, http.StatusOK, map[string]bool{"favorite": h.favoritesFor(r).IsFavorite(id)})
}

func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	f := h.favoritesFor(r)
	f.Remove(r.Context(), product.ID(mux.Vars(r)["id"]))
	respondJSON(w, http.StatusOK, f.List())
}

// Notification Handlers

// NotificationsResponse is the notification log with its unread flag
type NotificationsResponse struct {
	Notifications []favorites.Notification `json:"notifications"`
	HasUnread     bool                     `json:"has_unread"`
}

func notificationsResponse(f *favorites.Store) NotificationsResponse {
	return NotificationsResponse{
		Notifications: f.Notifications(),
		HasUnread:     f.HasUnread(),
	}
}

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, notificationsResponse(h.favoritesFor(r)))
}

// AddNotificationRequest is the body of POST /api/notifications
type AddNotificationRequest struct {
	Type    favorites.NotificationType `json:"type"`
	Message string                     `json:"message"`
}

func (h *Handlers) AddNotification(w http.ResponseWriter, r *http.Request) {
	var req AddNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.favoritesFor(r).AddNotification(r.Context(), req.Type, req.Message)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	f := h.favoritesFor(r)
	if !f.MarkAsRead(r.Context(), mux.Vars(r)["id"]) {
		respondJSONError(w, "Notification not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, notificationsResponse(f))
}

func (h *Handlers) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	f := h.favoritesFor(r)
	f.ClearNotifications(r.Context())
	respondJSON(w, http.StatusOK, notificationsResponse(f))
}

// Catalog Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.backend.Products.List(r.Context())
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.backend.Products.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Form Handlers

func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req backend.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.backend.Contact.Create(r.Context(), req)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (h *Handlers) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.backend.Newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (h *Handlers) SubmitReturn(w http.ResponseWriter, r *http.Request) {
	var req backend.ReturnInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ret, err := h.backend.Returns.Create(r.Context(), req)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ret)
}

func (h *Handlers) SubmitWholesale(w http.ResponseWriter, r *http.Request) {
	var req backend.WholesaleInquiry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.backend.Wholesale.Submit(r.Context(), req)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

// decodeProduct reads a loosely shaped product body and normalizes it
func decodeProduct(w http.ResponseWriter, r *http.Request) (product.Product, bool) {
	var raw product.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return product.Product{}, false
	}
	p := raw.Normalize()
	if p.ID.IsZero() {
		respondJSONError(w, "product id is required", http.StatusBadRequest)
		return product.Product{}, false
	}
	return p, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondBackendError maps backend failures onto the response. Validation
// errors are the caller's fault; a missing response is a bad gateway.
func respondBackendError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, backend.ErrValidation) {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		logger.Error(r.Context()).Err(err).Msg("Backend call failed")
		respondJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := apiErr.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	if status >= 500 {
		logger.Error(r.Context()).Err(err).Int("backend_status", apiErr.Status).Msg("Backend call failed")
	}
	respondJSONError(w, apiErr.Message, status)
}
