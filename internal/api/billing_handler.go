package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v78"

	"github.com/qrvisit/qrvisit/internal/auth"
	"github.com/qrvisit/qrvisit/internal/billing"
	"github.com/qrvisit/qrvisit/internal/config"
	"github.com/qrvisit/qrvisit/internal/profile"
)

// BillingProfileRepository defines the profile repository operations
// needed by billing
type BillingProfileRepository interface {
	Get(ctx context.Context, ownerID string) (*profile.Profile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*profile.Profile, error)
	SetPremium(ctx context.Context, ownerID string, premium bool, customerID, subscriptionID string) error
}

// CheckoutSessionResponse represents the response for creating a checkout session
type CheckoutSessionResponse struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

// PortalSessionResponse represents the response for creating a portal session
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// BillingHandler handles billing-related API endpoints
type BillingHandler struct {
	client *billing.Client
	repo   BillingProfileRepository
	config *config.BillingConfig
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(client *billing.Client, repo BillingProfileRepository, cfg *config.BillingConfig) *BillingHandler {
	return &BillingHandler{
		client: client,
		repo:   repo,
		config: cfg,
	}
}

// CreateCheckoutSession handles POST /api/billing/checkout
// Creates a Stripe Checkout session for the premium upgrade
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	p, err := h.repo.Get(r.Context(), claims.UID)
	if err != nil {
		writeError(w, "failed to get profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}
	if p.IsPremium {
		writeError(w, "profile is already premium", http.StatusBadRequest)
		return
	}

	customerID, err := h.client.GetOrCreateCustomer(r.Context(), p, claims.Email)
	if err != nil {
		writeError(w, "failed to create Stripe customer", http.StatusInternalServerError)
		return
	}

	// Persist a newly created customer ID so the webhook can find the
	// profile later
	if p.StripeCustomerID == "" {
		if err := h.repo.SetPremium(r.Context(), p.OwnerID, p.IsPremium, customerID, p.SubscriptionID); err != nil {
			writeError(w, "failed to update profile", http.StatusInternalServerError)
			return
		}
	}

	session, err := h.client.CreateCheckoutSession(
		r.Context(),
		customerID,
		h.config.PriceID,
		h.config.SuccessURL,
		h.config.CancelURL,
	)
	if err != nil {
		writeError(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, CheckoutSessionResponse{
		SessionID:  session.ID,
		SessionURL: session.URL,
	}, http.StatusOK)
}

// CreatePortalSession handles POST /api/billing/portal
// Returns a Stripe Customer Portal URL for subscription management
func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	p, err := h.repo.Get(r.Context(), claims.UID)
	if err != nil {
		writeError(w, "failed to get profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}
	if p.StripeCustomerID == "" {
		writeError(w, "profile has no billing account", http.StatusBadRequest)
		return
	}

	returnURL := r.URL.Query().Get("return_url")
	if returnURL == "" {
		returnURL = h.config.SuccessURL
	}

	session, err := h.client.CreatePortalSession(r.Context(), p.StripeCustomerID, returnURL)
	if err != nil {
		writeError(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, PortalSessionResponse{URL: session.URL}, http.StatusOK)
}

// StripeWebhook handles POST /api/billing/webhook
// Processes Stripe webhook events after signature verification
func (h *BillingHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		writeError(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	event, err := billing.VerifyWebhookSignature(body, signature, h.config.WebhookSecret)
	if err != nil {
		writeError(w, "invalid webhook signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case billing.EventCheckoutSessionCompleted:
		h.handleCheckoutSessionCompleted(w, event)
	case billing.EventSubscriptionUpdated:
		h.handleSubscriptionUpdated(w, event)
	case billing.EventSubscriptionDeleted:
		h.handleSubscriptionDeleted(w, event)
	default:
		// Acknowledge unhandled events
		w.WriteHeader(http.StatusOK)
	}
}

// handleCheckoutSessionCompleted processes checkout.session.completed events
func (h *BillingHandler) handleCheckoutSessionCompleted(w http.ResponseWriter, event stripe.Event) {
	ctx := context.Background()

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		writeError(w, "failed to parse checkout session", http.StatusBadRequest)
		return
	}

	customerID, subscriptionID := billing.ParseCheckoutSessionCompleted(&session)
	if customerID == "" || subscriptionID == "" {
		writeError(w, "missing customer or subscription ID", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByStripeCustomerID(ctx, customerID)
	if err != nil || p == nil {
		writeError(w, "profile not found for customer", http.StatusNotFound)
		return
	}

	if err := h.repo.SetPremium(ctx, p.OwnerID, true, customerID, subscriptionID); err != nil {
		writeError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleSubscriptionUpdated processes customer.subscription.updated events
func (h *BillingHandler) handleSubscriptionUpdated(w http.ResponseWriter, event stripe.Event) {
	ctx := context.Background()

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		writeError(w, "failed to parse subscription", http.StatusBadRequest)
		return
	}

	info := billing.ParseSubscriptionUpdate(&sub)
	if info.CustomerID == "" {
		writeError(w, "missing customer ID", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByStripeCustomerID(ctx, info.CustomerID)
	if err != nil || p == nil {
		writeError(w, "profile not found for customer", http.StatusNotFound)
		return
	}

	if err := h.repo.SetPremium(ctx, p.OwnerID, info.Active, info.CustomerID, info.SubscriptionID); err != nil {
		writeError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleSubscriptionDeleted processes customer.subscription.deleted events
func (h *BillingHandler) handleSubscriptionDeleted(w http.ResponseWriter, event stripe.Event) {
	ctx := context.Background()

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		writeError(w, "failed to parse subscription", http.StatusBadRequest)
		return
	}

	info := billing.ParseSubscriptionUpdate(&sub)
	if info.CustomerID == "" {
		writeError(w, "missing customer ID", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByStripeCustomerID(ctx, info.CustomerID)
	if err != nil || p == nil {
		writeError(w, "profile not found for customer", http.StatusNotFound)
		return
	}

	if err := h.repo.SetPremium(ctx, p.OwnerID, false, info.CustomerID, ""); err != nil {
		writeError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
