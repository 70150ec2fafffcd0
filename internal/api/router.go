package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/qrvisit/qrvisit/internal/auth"
	"github.com/qrvisit/qrvisit/internal/billing"
	"github.com/qrvisit/qrvisit/internal/config"
	"github.com/qrvisit/qrvisit/internal/template"
	"github.com/qrvisit/qrvisit/internal/version"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	ProfileService ProfileService
	ProfileRepo    BillingProfileRepository // nil disables billing routes
	TokenVerifier  auth.TokenVerifier       // nil means test mode with a static identity
	BillingClient  *billing.Client          // nil means no billing
	BillingConfig  *config.BillingConfig
}

// NewRouter creates a new HTTP router with all API routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := NewProfileHandler(cfg.ProfileService)

	registerPublicRoutes(mux, h)

	// Protected routes
	protectedMux := http.NewServeMux()
	registerProfileRoutes(protectedMux, h)

	billingEnabled := cfg.BillingClient != nil && cfg.BillingConfig != nil && cfg.ProfileRepo != nil
	var billingHandler *BillingHandler
	if billingEnabled {
		billingHandler = NewBillingHandler(cfg.BillingClient, cfg.ProfileRepo, cfg.BillingConfig)
		registerBillingRoutes(protectedMux, billingHandler)

		// Webhook is public: Stripe authenticates by signature, not token
		registerStripeWebhookRoute(mux, billingHandler)
	}

	protected := protect(cfg.TokenVerifier)(protectedMux)
	mux.Handle("/api/profile", protected)
	mux.Handle("/api/profile/", protected)
	if billingEnabled {
		mux.Handle("/api/billing/checkout", protected)
		mux.Handle("/api/billing/portal", protected)
	}

	return applyMiddlewareChain(mux)
}

// protect returns the auth middleware, or a static dev identity when no
// verifier is configured (local development only)
func protect(verifier auth.TokenVerifier) Middleware {
	if verifier != nil {
		return auth.Middleware(verifier)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithClaims(r.Context(), &auth.Claims{
				UID:   "dev-user",
				Email: "dev@localhost",
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// registerPublicRoutes registers routes that don't require authentication
func registerPublicRoutes(mux *http.ServeMux, h *ProfileHandler) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"status":"ok","hash":"%s"}`, version.CommitHash)))
	})

	// Template pickers read the layout catalog without signing in
	mux.HandleFunc("/api/templates", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, template.All(), http.StatusOK)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/u/", func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimPrefix(r.URL.Path, "/api/u/")
		if username == "" || strings.Contains(username, "/") {
			writeError(w, "invalid path", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.PublicProfile(w, r, username)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// registerProfileRoutes registers the owner's profile routes (requires auth)
func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandler) {
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetProfile(w, r)
		case http.MethodPut:
			h.UpsertProfile(w, r)
		case http.MethodDelete:
			h.DeleteProfile(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/profile/username-available", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.UsernameAvailable(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/profile/qrcode", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.RegenerateQRCode(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// registerBillingRoutes registers billing API routes (requires auth)
func registerBillingRoutes(mux *http.ServeMux, h *BillingHandler) {
	mux.HandleFunc("/api/billing/checkout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateCheckoutSession(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/billing/portal", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreatePortalSession(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// registerStripeWebhookRoute registers the Stripe webhook route (no auth required)
func registerStripeWebhookRoute(mux *http.ServeMux, h *BillingHandler) {
	mux.HandleFunc("/api/billing/webhook", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.StripeWebhook(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// applyMiddlewareChain wraps a handler with the standard middleware stack
func applyMiddlewareChain(h http.Handler) http.Handler {
	return Chain(
		RecoveryMiddleware,
		LoggingMiddleware,
		CORSMiddleware,
		JSONContentTypeMiddleware,
	)(h)
}
