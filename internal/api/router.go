package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/licorice-storefront/internal/api/middleware"
	"github.com/example/licorice-storefront/internal/auth"
)

// RouterConfig carries what the middleware chain needs
type RouterConfig struct {
	ServiceName   string
	SessionTokens *auth.SessionTokenService
	Admin         *auth.AdminAuthenticator
	SecureCookies bool
	LegacyHosts   []string
	CanonicalURL  string
	CORSOrigins   []string
	// HealthCheck reports whether storage is reachable; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, adminHandlers *AdminHandlers, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging)

	router.HandleFunc("/health", healthHandler(cfg.HealthCheck)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Storefront
	shop := router.PathPrefix("/api").Subrouter()
	shop.Use(middleware.Session(cfg.SessionTokens, cfg.SecureCookies))

	shop.HandleFunc("/cart", handlers.GetCart).Methods(http.MethodGet)
	shop.HandleFunc("/cart", handlers.ClearCart).Methods(http.MethodDelete)
	shop.HandleFunc("/cart/items", handlers.AddToCart).Methods(http.MethodPost)
	shop.HandleFunc("/cart/items/{id}", handlers.UpdateCartItem).Methods(http.MethodPut)
	shop.HandleFunc("/cart/items/{id}", handlers.RemoveFromCart).Methods(http.MethodDelete)

	shop.HandleFunc("/pricing", handlers.GetPricing).Methods(http.MethodGet)

	shop.HandleFunc("/favorites", handlers.GetFavorites).Methods(http.MethodGet)
	shop.HandleFunc("/favorites", handlers.AddFavorite).Methods(http.MethodPost)
	shop.HandleFunc("/favorites/{id}", handlers.IsFavorite).Methods(http.MethodGet)
	shop.HandleFunc("/favorites/{id}", handlers.RemoveFavorite).Methods(http.MethodDelete)

	shop.HandleFunc("/notifications", handlers.GetNotifications).Methods(http.MethodGet)
	shop.HandleFunc("/notifications", handlers.AddNotification).Methods(http.MethodPost)
	shop.HandleFunc("/notifications", handlers.ClearNotifications).Methods(http.MethodDelete)
	shop.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods(http.MethodPost)

	shop.HandleFunc("/products", handlers.GetProducts).Methods(http.MethodGet)
	shop.HandleFunc("/products/{id}", handlers.GetProduct).Methods(http.MethodGet)

	shop.HandleFunc("/contact", handlers.SubmitContact).Methods(http.MethodPost)
	shop.HandleFunc("/newsletter", handlers.SubscribeNewsletter).Methods(http.MethodPost)
	shop.HandleFunc("/returns", handlers.SubmitReturn).Methods(http.MethodPost)
	shop.HandleFunc("/wholesale", handlers.SubmitWholesale).Methods(http.MethodPost)

	// Admin
	router.HandleFunc(middleware.AdminLoginPath, authHandlers.Login).Methods(http.MethodPost)
	router.HandleFunc("/admin/logout", authHandlers.Logout).Methods(http.MethodPost)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminGate(cfg.Admin))

	admin.HandleFunc("/session", authHandlers.Session).Methods(http.MethodGet)

	admin.HandleFunc("/api/flavors", adminHandlers.ListFlavors).Methods(http.MethodGet)
	admin.HandleFunc("/api/flavors", adminHandlers.CreateFlavor).Methods(http.MethodPost)
	admin.HandleFunc("/api/flavors/{id}", adminHandlers.UpdateFlavor).Methods(http.MethodPut)
	admin.HandleFunc("/api/flavors/{id}", adminHandlers.DeleteFlavor).Methods(http.MethodDelete)

	admin.HandleFunc("/api/messages", adminHandlers.ListMessages).Methods(http.MethodGet)
	admin.HandleFunc("/api/messages/{id}", adminHandlers.DeleteMessage).Methods(http.MethodDelete)

	admin.HandleFunc("/api/newsletter", adminHandlers.ListSubscribers).Methods(http.MethodGet)
	admin.HandleFunc("/api/newsletter/{id}", adminHandlers.DeleteSubscriber).Methods(http.MethodDelete)

	admin.HandleFunc("/api/returns", adminHandlers.ListReturns).Methods(http.MethodGet)
	admin.HandleFunc("/api/returns/{id}", adminHandlers.UpdateReturn).Methods(http.MethodPut)
	admin.HandleFunc("/api/returns/{id}", adminHandlers.DeleteReturn).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
	})

	var handler http.Handler = router
	handler = otelhttp.NewHandler(handler, cfg.ServiceName+"-http")
	handler = c.Handler(handler)
	return middleware.LegacyHostRedirect(cfg.LegacyHosts, cfg.CanonicalURL)(handler)
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
